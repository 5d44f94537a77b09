// Package fetch retrieves log snapshots from the game server's FTP share.
// It is a thin collaborator: the core consumes plain text buffers and does
// not care how they were obtained.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/textproto"
	"os"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

// ErrNotFound is returned when a remote or local input file does not
// exist. Optional inputs treat this as a graceful degradation.
var ErrNotFound = errors.New("input file not found")

// Source provides named input files as byte buffers.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FTPSource downloads files from a remote directory over FTP.
type FTPSource struct {
	Addr     string // host:port
	User     string
	Password string
	Dir      string // remote log directory
	Timeout  time.Duration
}

// Fetch downloads one file from the remote log directory.
func (s *FTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	conn, err := ftp.Dial(s.Addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", s.Addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(s.User, s.Password); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(path.Join(s.Dir, name))
	if err != nil {
		var proto *textproto.Error
		if errors.As(err, &proto) && proto.Code == ftp.StatusFileUnavailable {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("retrieving %s: %w", name, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// LocalSource reads input files from a local directory, bypassing FTP.
type LocalSource struct {
	Dir string
}

// Fetch reads one file from the local directory.
func (s *LocalSource) Fetch(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(path.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}
