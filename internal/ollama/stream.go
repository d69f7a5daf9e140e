package ollama

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Markers wrapping the reasoning segment in the persisted transcript, so a
// downstream renderer can recover it from the message content.
const (
	ReasoningOpen  = "<think>\n"
	ReasoningClose = "\n</think>\n"
)

// Assembler reassembles the backend's chunked NDJSON stream into ordered
// text fragments, separating the reasoning segment from the answer, and
// accumulates the full marker-annotated transcript.
//
// Transport chunks may split a record at any byte boundary; an incomplete
// trailing line is carried over into the next chunk instead of being
// dropped. Complete lines that still fail to parse are skipped.
type Assembler struct {
	emit       func(fragment string)
	transcript strings.Builder
	carry      []byte
	reasoning  bool
	done       bool
	metrics    *Metrics
}

// NewAssembler creates an assembler delivering fragments through emit.
// emit may be nil when only the final transcript is wanted.
func NewAssembler(emit func(string)) *Assembler {
	return &Assembler{emit: emit}
}

// Consume feeds one transport chunk into the assembler. Records after the
// terminal done=true record are ignored.
func (a *Assembler) Consume(chunk []byte) {
	if a.done {
		return
	}

	data := chunk
	if len(a.carry) > 0 {
		data = append(a.carry, chunk...)
		a.carry = nil
	}

	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		a.consumeLine(data[:idx])
		data = data[idx+1:]
		if a.done {
			return
		}
	}

	if len(data) > 0 {
		a.carry = append([]byte(nil), data...)
	}
}

// Flush processes a carried trailing line once the transport reports EOF,
// covering streams whose final record is not newline-terminated.
func (a *Assembler) Flush() {
	if a.done || len(a.carry) == 0 {
		return
	}
	line := a.carry
	a.carry = nil
	a.consumeLine(line)
}

// Done reports whether the terminal record has been seen
func (a *Assembler) Done() bool {
	return a.done
}

// Transcript returns everything assembled so far, markers included
func (a *Assembler) Transcript() string {
	return a.transcript.String()
}

// Metrics returns the terminal record's performance bundle, nil if the
// stream ended without one or the record carried no measurements.
func (a *Assembler) Metrics() *Metrics {
	return a.metrics
}

func (a *Assembler) consumeLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var record chatResponse
	if err := json.Unmarshal(line, &record); err != nil {
		// Malformed record: skipped, not fatal
		return
	}

	if record.Message != nil {
		if record.Message.Thinking != "" {
			if !a.reasoning {
				a.push(ReasoningOpen)
				a.reasoning = true
			}
			a.push(record.Message.Thinking)
		}
		if record.Message.Content != "" {
			if a.reasoning {
				a.push(ReasoningClose)
				a.reasoning = false
			}
			a.push(record.Message.Content)
		}
	}

	if record.Done {
		if a.reasoning {
			a.push(ReasoningClose)
			a.reasoning = false
		}
		a.metrics = metricsFrom(&record)
		a.done = true
	}
}

func (a *Assembler) push(fragment string) {
	a.transcript.WriteString(fragment)
	if a.emit != nil {
		a.emit(fragment)
	}
}

func metricsFrom(record *chatResponse) *Metrics {
	if record.TotalDuration == 0 || record.EvalDuration == 0 {
		// The bundle is all-or-nothing; a terminal record without
		// measurements yields none.
		return nil
	}
	return &Metrics{
		TotalDuration:   record.TotalDuration,
		LoadDuration:    record.LoadDuration,
		PromptEvalCount: record.PromptEvalCount,
		EvalCount:       record.EvalCount,
		EvalDuration:    record.EvalDuration,
		TokensPerSecond: float64(record.EvalCount) / (float64(record.EvalDuration) / 1e9),
	}
}
