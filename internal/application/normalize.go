package application

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/masking"
)

// Normalize converts a broker record into its display form. It never fails: absent bytes
// become empty strings and invalid UTF-8 is replaced rather than rejected, so one bad
// record cannot stop the stream.
func Normalize(raw domain.RawRecord, mask bool) domain.Record {
	text := func(b []byte) string {
		s := decodeText(b)
		if mask {
			s = masking.Mask(s)
		}
		return s
	}

	headers := make(map[string]string, len(raw.Headers))
	for k, v := range raw.Headers {
		headers[k] = text(v)
	}

	var ts *int64
	if raw.Timestamp > 0 {
		t := raw.Timestamp
		ts = &t
	}

	return domain.Record{
		Topic:     raw.Topic,
		Partition: raw.Partition,
		Offset:    strconv.FormatInt(raw.Offset, 10),
		Timestamp: ts,
		Key:       text(raw.Key),
		Value:     text(raw.Value),
		Headers:   headers,
	}
}

func decodeText(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
