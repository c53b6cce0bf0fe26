package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var importBatchSize int

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load address documents into the document store",
	Long:  "Reads documents from a JSON array, newline-delimited JSON or YAML file and upserts them by _id (or id) into the document store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		docs, err := readDocumentFile(path)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "import: migrate")
		}

		size := importBatchSize
		if size <= 0 {
			size = len(docs)
		}

		written := 0
		for start := 0; start < len(docs); start += size {
			end := min(start+size, len(docs))
			n, err := st.Put(ctx, docs[start:end])
			if err != nil {
				return eris.Wrapf(err, "import: documents %d-%d", start, end-1)
			}
			written += n
		}

		zap.L().Info("import complete",
			zap.Int("documents", written),
			zap.String("file", path),
		)
		return nil
	},
}

// readDocumentFile reads path, choosing the format by extension.
func readDocumentFile(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "import: read file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLDocuments(data)
	default:
		return parseJSONDocuments(data)
	}
}

// parseJSONDocuments accepts a JSON array of objects or a stream of objects
// (one per line or concatenated).
func parseJSONDocuments(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, eris.New("import: file is empty")
	}

	var docs []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, eris.Wrap(err, "import: decode json array")
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		for {
			var raw json.RawMessage
			err := dec.Decode(&raw)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, eris.Wrapf(err, "import: decode document %d", len(docs)+1)
			}
			docs = append(docs, raw)
		}
	}

	for i, raw := range docs {
		if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
			return nil, eris.Errorf("import: document %d is not an object", i+1)
		}
	}
	return docs, nil
}

// parseYAMLDocuments accepts one or more YAML documents, each a mapping or
// a sequence of mappings, and converts them to JSON.
func parseYAMLDocuments(data []byte) ([]json.RawMessage, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []json.RawMessage
	add := func(v any) error {
		m, ok := v.(map[string]any)
		if !ok {
			return eris.Errorf("import: yaml document %d is not a mapping", len(docs)+1)
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return eris.Wrapf(err, "import: encode yaml document %d", len(docs)+1)
		}
		docs = append(docs, raw)
		return nil
	}

	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "import: decode yaml")
		}
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if err := add(item); err != nil {
					return nil, err
				}
			}
			continue
		}
		if v == nil {
			continue
		}
		if err := add(v); err != nil {
			return nil, err
		}
	}

	if len(docs) == 0 {
		return nil, eris.New("import: file is empty")
	}
	return docs, nil
}

func init() {
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 500, "documents written per transaction")
	rootCmd.AddCommand(importCmd)
}
