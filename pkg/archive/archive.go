// Package archive reads and writes portable snapshot files.
//
// An archive is a zstd stream holding one JSON header line followed by the
// JSON-encoded State. Read also accepts an uncompressed JSON State, which is
// the shape a browser export of the same data takes.
package archive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"

	"github.com/daviddao/tickledger/pkg/model"
)

// Version is the archive format written by Write.
const Version = 1

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Header is the first line of an archive.
type Header struct {
	Version   int       `json:"version"`
	Tick      int64     `json:"tick"`
	Resources int       `json:"resources"`
	Events    int       `json:"events"`
	SavedAt   time.Time `json:"saved_at"`
}

// Write stores state at path, creating parent directories as needed.
func Write(path string, state model.State) (Header, error) {
	errb := oops.Code("ARCHIVE_WRITE_FAILED").With("path", path)

	state = state.Clone()
	state.Normalize()
	h := Header{
		Version:   Version,
		Tick:      state.Ticks,
		Resources: len(state.Resources),
		Events:    len(state.Events),
		SavedAt:   time.Now().UTC(),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Header{}, errb.Wrap(err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Header{}, errb.Wrap(err)
	}
	defer f.Close()

	if err := encode(f, h, state); err != nil {
		return Header{}, errb.Wrap(err)
	}
	if err := f.Close(); err != nil {
		return Header{}, errb.Wrap(err)
	}
	return h, nil
}

func encode(w io.Writer, h Header, state model.State) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(h)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(state); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Read loads the state stored at path. For plain JSON input the returned
// header is synthesized from the state itself with Version 0.
func Read(path string) (Header, model.State, error) {
	errb := oops.Code("ARCHIVE_READ_FAILED").With("path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, model.State{}, errb.Wrap(err)
	}

	var h Header
	var state model.State
	if bytes.HasPrefix(data, zstdMagic) {
		h, state, err = decode(data)
	} else {
		state, err = decodePlain(data)
		h = Header{Tick: state.Ticks, Resources: len(state.Resources), Events: len(state.Events)}
	}
	if err != nil {
		return Header{}, model.State{}, errb.Wrap(err)
	}

	state.Normalize()
	if err := Validate(state); err != nil {
		return Header{}, model.State{}, err
	}
	return h, state, nil
}

func decode(data []byte) (Header, model.State, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return Header{}, model.State{}, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return Header{}, model.State{}, oops.Wrapf(err, "read header")
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return Header{}, model.State{}, oops.Wrapf(err, "decode header")
	}
	if h.Version > Version {
		return Header{}, model.State{}, oops.
			With("version", h.Version).
			Errorf("archive version %d is newer than supported version %d", h.Version, Version)
	}

	var state model.State
	if err := json.NewDecoder(br).Decode(&state); err != nil {
		return Header{}, model.State{}, oops.Wrapf(err, "decode state")
	}
	return h, state, nil
}

func decodePlain(data []byte) (model.State, error) {
	state := model.DefaultState()
	if err := json.Unmarshal(data, &state); err != nil {
		return model.State{}, oops.Wrapf(err, "decode plain state")
	}
	return state, nil
}

// Validate checks the invariants a loaded state must satisfy before it
// replaces the live simulation.
func Validate(s model.State) error {
	errb := oops.Code("ARCHIVE_INVALID")

	if s.Ticks < 0 {
		return errb.With("ticks", s.Ticks).Errorf("negative tick counter %d", s.Ticks)
	}

	names := make(map[string]bool, len(s.Resources))
	for _, r := range s.Resources {
		if r.Name == "" {
			return errb.Errorf("resource with empty name")
		}
		if names[r.Name] {
			return errb.With("resource", r.Name).Errorf("duplicate resource %q", r.Name)
		}
		if r.Amount < 0 {
			return errb.With("resource", r.Name).Errorf("resource %q has negative amount %d", r.Name, r.Amount)
		}
		names[r.Name] = true
	}

	ids := make(map[string]bool, len(s.Events))
	for _, e := range s.Events {
		if e.ID == "" {
			return errb.With("event", e.Name).Errorf("event %q has no id", e.Name)
		}
		if ids[e.ID] {
			return errb.With("event", e.ID).Errorf("duplicate event id %q", e.ID)
		}
		ids[e.ID] = true
		switch e.Status {
		case model.StatusPending, model.StatusCompleted, model.StatusCancelled, model.StatusFailed:
		default:
			return errb.With("event", e.ID).Errorf("event %q has unknown status %q", e.ID, e.Status)
		}
		for _, o := range e.Outcomes {
			if err := o.Validate(); err != nil {
				return errb.With("event", e.ID).Wrap(err)
			}
		}
	}
	return nil
}
