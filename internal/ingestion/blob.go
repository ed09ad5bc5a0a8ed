package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/klauspost/compress/zlib"
)

// APRRecord is one entry of the dYdX APR blob.
type APRRecord struct {
	Date string          `json:"date"`
	APR  json.RawMessage `json:"apr"`
}

// Value returns the APR as text; numbers keep their JSON spelling and
// quoted numbers are unquoted. Null yields "".
func (r APRRecord) Value() string {
	raw := bytes.TrimSpace(r.APR)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		if s, err := strconv.Unquote(string(raw)); err == nil {
			return s
		}
	}
	return string(raw)
}

type aprBlob struct {
	Data []APRRecord `json:"data"`
}

// DecodeAPRBlob inflates a zlib stream holding {"data": [{"date", "apr"}, ...]}.
func DecodeAPRBlob(r io.Reader) ([]APRRecord, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer zr.Close()

	var blob aprBlob
	if err := json.NewDecoder(zr).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode apr blob: %w", err)
	}
	if blob.Data == nil {
		return nil, fmt.Errorf("decode apr blob: missing data array")
	}
	return blob.Data, nil
}

// ReadAPRBlob reads and decodes the blob at path.
func ReadAPRBlob(fsys fs.FS, path string) ([]APRRecord, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeAPRBlob(f)
}

// EncodeAPRBlob writes records in the blob format.
func EncodeAPRBlob(w io.Writer, records []APRRecord) error {
	zw := zlib.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(aprBlob{Data: records}); err != nil {
		zw.Close()
		return fmt.Errorf("encode apr blob: %w", err)
	}
	return zw.Close()
}

// APRTable converts blob records to a [date, apr] table.
func APRTable(records []APRRecord) *Table {
	t := NewTable("dydx_apr", []string{"date", "apr"})
	for _, rec := range records {
		t.Append([]string{rec.Date, rec.Value()})
	}
	return t
}
