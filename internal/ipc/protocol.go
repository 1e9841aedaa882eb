package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameBytes bounds one JSON line; board snapshots and the feed fit well below it.
const maxFrameBytes = 1 << 20

// Request is one JSON line sent by the CLI to the running daemon.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Response is the daemon's single JSON line reply. Data carries command-specific
// payloads such as board snapshots or the recognized-text feed.
type Response struct {
	OK      bool            `json:"ok"`
	State   string          `json:"state,omitempty"`
	View    string          `json:"view,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Failure wraps err as a failed response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

func writeFrame(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// readFrame returns the first newline-terminated line from r. The slice is
// only valid until the next read from r.
func readFrame(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameBytes)
	if scanner.Scan() {
		return scanner.Bytes(), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

func decodeFrame(frame []byte, v any) error {
	if err := json.Unmarshal(frame, v); err != nil {
		return fmt.Errorf("%w (%d bytes)", err, len(frame))
	}
	return nil
}
