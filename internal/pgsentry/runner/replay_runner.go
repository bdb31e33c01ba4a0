// Package runner drives the emit pipeline: capture records in, EVE
// records out. It is the host side of the transaction-logger contract:
// it builds the event envelope, opens the protocol scope, and lets the
// registered serializer fill it.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/lucaderi/pgsentry/internal/pgsentry/capture"
	"github.com/lucaderi/pgsentry/internal/pgsentry/config"
	"github.com/lucaderi/pgsentry/internal/pgsentry/jsonbuilder"
	"github.com/lucaderi/pgsentry/internal/pgsentry/logger"
	"github.com/lucaderi/pgsentry/internal/pgsentry/output"
)

var json = jsoniter.ConfigFastest

// EventType tags every record this pipeline emits.
const EventType = "pgsql"

// RunSummary is one line of the run log.
type RunSummary struct {
	Timestamp     string `json:"timestamp"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	RejectFile    string `json:"reject_file,omitempty"`
	RawCount      int    `json:"raw_count"`
	EmittedCount  int    `json:"emitted_count"`
	RejectedCount int    `json:"rejected_count"`
}

type replayResult struct {
	rawCount      int
	emittedCount  int
	rejectedCount int
}

// buildRecord assembles one EVE record for a decoded capture. It returns
// nil when the registered serializer rejects the transaction handle.
func buildRecord(rec *capture.Record, txlog output.TxLogger) ([]byte, error) {
	js := jsonbuilder.New()
	js.SetString("event_id", uuid.NewString())
	if rec.Timestamp != "" {
		js.SetString("timestamp", rec.Timestamp)
	}
	js.SetString("event_type", EventType)
	if rec.SrcIP != "" {
		js.SetString("src_ip", rec.SrcIP)
		js.SetInt("src_port", int64(rec.SrcPort))
	}
	if rec.DestIP != "" {
		js.SetString("dest_ip", rec.DestIP)
		js.SetInt("dest_port", int64(rec.DestPort))
	}
	js.SetUint("tx_id", rec.Tx.ID)

	js.OpenObject(EventType)
	if !txlog.LogFunc(rec.Tx, js) {
		return nil, nil
	}
	js.Close()

	return js.Finish()
}

// rejectWriter mirrors rejected capture lines into the reject file when
// one is configured.
type rejectWriter struct {
	enc *jsoniter.Encoder
}

func newRejectWriter(w io.Writer) *rejectWriter {
	if w == nil {
		return &rejectWriter{}
	}
	return &rejectWriter{enc: json.NewEncoder(w)}
}

type rejectEntry struct {
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
	Line      string `json:"line"`
}

func (r *rejectWriter) write(reason, line string) error {
	if r.enc == nil {
		return nil
	}
	entry := rejectEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Reason:    reason,
		Line:      line,
	}
	if err := r.enc.Encode(entry); err != nil {
		return fmt.Errorf("encode reject entry: %w", err)
	}
	return nil
}

// processLine converts one capture line into an emitted record. It
// reports true when a record was written, false when the line was
// skipped or rejected; only output failures are fatal.
func processLine(line string, txlog output.TxLogger, out io.Writer, reject *rejectWriter) (bool, error) {
	log := logger.L()

	rec, err := capture.DecodeLine(line)
	if err != nil {
		if errors.Is(err, capture.ErrSkipLine) {
			log.Debugw("skipping line", "reason", "not a capture record")
			if err := reject.write("decode", line); err != nil {
				return false, err
			}
			return false, nil
		}
		return false, fmt.Errorf("decode capture line: %w", err)
	}

	doc, err := buildRecord(rec, txlog)
	if err != nil {
		return false, fmt.Errorf("build record: %w", err)
	}
	if doc == nil {
		log.Warnw("serializer rejected transaction", "tx_id", rec.Tx.ID)
		if err := reject.write("serialize", line); err != nil {
			return false, err
		}
		return false, nil
	}

	if _, err := out.Write(append(doc, '\n')); err != nil {
		return false, fmt.Errorf("write record: %w", err)
	}
	return true, nil
}

func openRejectFile(cfg *config.Config) (io.WriteCloser, error) {
	if cfg == nil || cfg.Output.RejectFile == "" {
		return nil, nil
	}
	return os.OpenFile(cfg.Output.RejectFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func appendRunLog(path string, summary RunSummary) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(summary)
}

// RunReplay is the core emit loop: it reads capture lines from in,
// serializes each completed transaction through the logger registered
// for PostgreSQL, and writes NDJSON records to out. It is factored out
// from the cobra command so it can be unit tested.
func RunReplay(ctx context.Context, in io.Reader, out io.Writer, inputName string, cfg *config.Config) error {
	log := logger.L()

	txlog, ok := output.LookupTxLogger(output.ProtoPostgreSQL)
	if !ok {
		return fmt.Errorf("no transaction logger registered for %q", output.ProtoPostgreSQL)
	}
	log.Infow("starting replay run", "input", inputName, "logger", txlog.Name)

	rejectFile, err := openRejectFile(cfg)
	if err != nil {
		return fmt.Errorf("open reject file: %w", err)
	}
	if rejectFile != nil {
		defer rejectFile.Close()
	}
	reject := newRejectWriter(rejectFile)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	result := replayResult{}
	startTime := time.Now()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.rawCount++
		if result.rawCount%1000 == 0 {
			log.Infow("replay progress",
				"lines_processed", result.rawCount,
				"emitted_count", result.emittedCount,
				"rejected_count", result.rejectedCount)
		}

		emitted, err := processLine(scanner.Text(), txlog, out, reject)
		if err != nil {
			log.Errorw("failed to process line",
				"line_number", result.rawCount,
				"err", err.Error())
			return err
		}
		if emitted {
			result.emittedCount++
		} else {
			result.rejectedCount++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if cfg != nil && cfg.Output.RunLog != "" {
		summary := RunSummary{
			Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
			Input:         inputName,
			Output:        cfg.Output.File,
			RejectFile:    cfg.Output.RejectFile,
			RawCount:      result.rawCount,
			EmittedCount:  result.emittedCount,
			RejectedCount: result.rejectedCount,
		}
		if err := appendRunLog(cfg.Output.RunLog, summary); err != nil {
			log.Errorw("failed to write run log", "path", cfg.Output.RunLog, "err", err.Error())
		}
	}

	duration := time.Since(startTime)
	log.Infow("completed replay run",
		"duration", duration,
		"lines_processed", result.rawCount,
		"emitted_count", result.emittedCount,
		"rejected_count", result.rejectedCount)

	return nil
}
