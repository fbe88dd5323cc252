package types

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
)

// DecFromFloat converts f to a fixed precision decimal using its shortest
// decimal representation, so 0.5192 compares equal to the literal 0.5192.
func DecFromFloat(f float64) (sdkmath.LegacyDec, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%v is not a finite number", f)
	}
	d, err := sdkmath.LegacyNewDecFromStr(strconv.FormatFloat(f, 'f', -1, 64))
	if err == nil {
		return d, nil
	}
	// more than LegacyPrecision decimals, round
	d, err = sdkmath.LegacyNewDecFromStr(strconv.FormatFloat(f, 'f', sdkmath.LegacyPrecision, 64))
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("%v is out of decimal range: %w", f, err)
	}
	return d, nil
}

// GzipDeterministic sets a fixed header (zero ModTime, empty Name/Comment)
// and uses the specified compression level.
func GzipDeterministic(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	gw.Header.ModTime = time.Time{}
	gw.Header.Name = ""
	gw.Header.Comment = ""
	if _, err := gw.Write(data); err != nil {
		_ = gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GzipUnzip decompresses gzip-compressed bytes and returns raw bytes.
func GzipUnzip(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip new reader: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}
