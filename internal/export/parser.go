package export

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	gmail "google.golang.org/api/gmail/v1"
)

// ParseMessage decodes a full-format Gmail message into an Email. It
// fails with ErrMalformedMessage only when the payload carries no
// usable MIME structure at all; every softer problem (bad charset,
// unparsable date, missing subject) degrades to a sensible default.
func ParseMessage(msg *gmail.Message) (*Email, error) {
	if msg == nil || msg.Payload == nil {
		return nil, fmt.Errorf("%w: no payload", ErrMalformedMessage)
	}

	e := &Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Headers:  make(map[string]string, len(msg.Payload.Headers)),
		Labels:   msg.LabelIds,
	}

	for _, h := range msg.Payload.Headers {
		if h == nil || h.Name == "" {
			continue
		}
		// First occurrence wins; Gmail repeats some headers
		// (Received) that the export never uses.
		if _, ok := e.Headers[h.Name]; !ok {
			e.Headers[h.Name] = decodeEncodedWords(h.Value)
		}
	}

	e.Subject = e.Header("Subject")
	if strings.TrimSpace(e.Subject) == "" {
		e.Subject = NoSubject
	}

	e.RawDate = e.Header("Date")
	e.Date, e.DateKnown = parseDate(e.RawDate, msg.InternalDate)

	e.BodyHTML, e.BodyText = extractBodies(msg.Payload)
	if e.BodyHTML == "" && e.BodyText == "" {
		e.EmptyBody = true
	}

	return e, nil
}

// extractBodies walks the part tree depth-first and keeps the first
// text/html and first text/plain parts encountered. Later parts of the
// same type are ignored rather than concatenated.
func extractBodies(payload *gmail.MessagePart) (html, text string) {
	walkParts(payload, func(part *gmail.MessagePart) {
		if part.Body == nil || part.Body.Data == "" {
			return
		}
		mediaType := strings.ToLower(part.MimeType)
		switch {
		case strings.HasPrefix(mediaType, "text/html"):
			if html == "" {
				html = decodePartBody(part)
			}
		case strings.HasPrefix(mediaType, "text/plain"):
			if text == "" {
				text = decodePartBody(part)
			}
		}
	})
	return html, text
}

// walkParts visits part and all nested parts depth-first.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}

// decodePartBody decodes a part's base64url body and converts it from
// its declared charset to UTF-8. Undeclared or unsupported charsets
// fall back to UTF-8 with replacement of invalid sequences.
func decodePartBody(part *gmail.MessagePart) string {
	raw, err := base64.URLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		// Some providers hand back standard base64.
		raw, err = base64.StdEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
	}
	return decodeCharset(raw, partCharset(part))
}

// partCharset extracts the charset parameter from a part's
// Content-Type header, or "" when undeclared.
func partCharset(part *gmail.MessagePart) string {
	for _, h := range part.Headers {
		if h == nil || !strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		_, params, err := mime.ParseMediaType(h.Value)
		if err != nil {
			return ""
		}
		return params["charset"]
	}
	return ""
}

// decodeCharset converts raw bytes in the named charset to UTF-8.
func decodeCharset(raw []byte, charset string) string {
	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		if enc, err := htmlindex.Get(charset); err == nil && enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
				return string(decoded)
			}
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

// wordDecoder decodes RFC 2047 encoded-words in header values, with
// charset support beyond utf-8/iso-8859-1.
var wordDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(input), nil
	},
}

func decodeEncodedWords(v string) string {
	decoded, err := wordDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// parseDate parses an RFC 5322 Date header, falling back to the
// provider's internal timestamp (milliseconds since epoch) when the
// header is missing or unparsable. Both absent means the date is
// unknown, which is a sentinel rather than an error.
func parseDate(header string, internalMillis int64) (time.Time, bool) {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t, true
		}
	}
	if internalMillis > 0 {
		return time.UnixMilli(internalMillis).UTC(), true
	}
	return time.Time{}, false
}
