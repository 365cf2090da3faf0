package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Normalize re-encodes a JSON value the way JSON.stringify writes a value read
// back by JSON.parse: compact, strings escaped only where JSON requires it,
// numbers in shortest round-trip form and repeated object keys keeping the
// last value at the first position. Integer-like object keys come first in
// ascending order, as JavaScript objects enumerate them.
func Normalize(data []byte) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := writeValue(&buf, dec); err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected %v after value", tok)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return writeObject(buf, dec)
		case '[':
			return writeArray(buf, dec)
		}
		return fmt.Errorf("unexpected %v", t)
	case string:
		writeString(buf, t)
	case json.Number:
		s, err := formatNumber(t)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func writeObject(buf *bytes.Buffer, dec *json.Decoder) error {
	var keys []string
	values := make(map[string][]byte)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected %v as object key", tok)
		}
		var v bytes.Buffer
		if err := writeValue(&v, dec); err != nil {
			return err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v.Bytes()
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, aIdx := arrayIndex(keys[i])
		b, bIdx := arrayIndex(keys[j])
		if aIdx && bIdx {
			return a < b
		}
		return aIdx && !bIdx
	})

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		buf.Write(values[k])
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, dec *json.Decoder) error {
	buf.WriteByte('[')
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, dec); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	_, err := dec.Token()
	return err
}

// arrayIndex reports whether key is a canonical array index (0 to 2^32-2)
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return n, true
}

func writeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// formatNumber writes n as a JavaScript number would print. Values too
// large for a double become null.
func formatNumber(n json.Number) (string, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return "", err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null", nil
	}
	if f == 0 {
		return "0", nil
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	mant, expStr, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	exp, err := strconv.Atoi(expStr)
	if err != nil {
		return "", err
	}
	digits := strings.Replace(mant, ".", "", 1)
	k, pos := len(digits), exp+1

	switch {
	case k <= pos && pos <= 21:
		return sign + digits + strings.Repeat("0", pos-k), nil
	case 0 < pos && pos <= 21:
		return sign + digits[:pos] + "." + digits[pos:], nil
	case -6 < pos && pos <= 0:
		return sign + "0." + strings.Repeat("0", -pos) + digits, nil
	}

	m := digits[:1]
	if k > 1 {
		m += "." + digits[1:]
	}
	e := exp
	es := "+"
	if e < 0 {
		es = "-"
		e = -e
	}
	return sign + m + "e" + es + strconv.Itoa(e), nil
}
