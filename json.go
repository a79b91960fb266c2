package safefs

import (
	"context"
	"encoding/json"
)

// ReadJSON reads the file at path and unmarshals it into v. A missing or
// unreadable file fails with the read tag; content that is not valid JSON
// fails with the parse tag. The raw content is discarded on parse failure.
func (fs *FS) ReadJSON(ctx context.Context, path string, v any) error {
	data, err := fs.Read(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fs.fail(OpParse, path, "", err)
	}
	return nil
}

// WriteJSON marshals v and writes it to the file at path. A value that
// cannot be marshaled fails with the serialize tag before any lock is
// taken or byte written. Indentation defaults to the configured indent;
// override per call with WithIndent.
func (fs *FS) WriteJSON(ctx context.Context, path string, v any, options ...Option) error {
	opts := processOptions(options...)
	indent := fs.cfg.JSONIndent
	if opts.IndentSet {
		indent = opts.Indent
	}

	var (
		data []byte
		err  error
	)
	if indent == "" {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", indent)
	}
	if err != nil {
		return fs.fail(OpSerialize, path, "", err)
	}
	data = append(data, '\n')

	return fs.Write(ctx, path, data, options...)
}
