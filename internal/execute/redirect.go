package execute

import (
	"errors"
	"io/fs"
	"os"

	"tsh/internal/parser"
)

// redirections holds the files opened for one group, keyed by stage index.
type redirections struct {
	in  map[int]*os.File
	out map[int]*os.File
}

// openRedirections opens every redirection of the group before anything is
// spawned, so a bad path aborts the whole group.
func openRedirections(group parser.Group) (*redirections, error) {
	r := &redirections{in: make(map[int]*os.File), out: make(map[int]*os.File)}

	for i, st := range group.Stages {
		if st.Stdin.Kind == parser.File {
			f, err := os.Open(st.Stdin.Path)
			if err != nil {
				r.Close()
				return nil, redirectError(st, st.Stdin.Path, err)
			}
			r.in[i] = f
		}

		if st.Stdout.Kind == parser.File {
			flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			if st.Stdout.Append {
				flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
			}
			f, err := os.OpenFile(st.Stdout.Path, flags, 0644)
			if err != nil {
				r.Close()
				return nil, redirectError(st, st.Stdout.Path, err)
			}
			r.out[i] = f
		}
	}

	return r, nil
}

func redirectError(st parser.Stage, path string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return &LaunchError{Program: st.Program, Path: path, Err: err}
}

func (r *redirections) Close() {
	for _, f := range r.in {
		_ = f.Close()
	}
	for _, f := range r.out {
		_ = f.Close()
	}
}
