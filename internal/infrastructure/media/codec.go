package media

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/pkg/errors"
)

// Codec converts raw binary media into the transport-safe attachment form
// (base64 + MIME type) used for outbound requests and history replay.
// Encoding is deterministic and lossless; the codec never validates that
// the payload actually matches its declared MIME type.
type Codec struct{}

// NewCodec 创建附件编解码器
func NewCodec() *Codec {
	return &Codec{}
}

// EncodeReader reads the source to completion and encodes it. The MIME
// type is sniffed from the content. Read failures surface as an
// ENCODING_FAILED error and leave no other trace.
func (c *Codec) EncodeReader(r io.Reader, name string) (entity.Attachment, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return entity.Attachment{}, errors.NewEncodingError(
			fmt.Sprintf("read attachment %q", name), err)
	}
	return c.EncodeBytes(raw, name, ""), nil
}

// EncodeBytes encodes an in-memory payload. When declaredType is empty the
// MIME type is sniffed from the first bytes.
func (c *Codec) EncodeBytes(raw []byte, name, declaredType string) entity.Attachment {
	mime := declaredType
	if mime == "" {
		mime = mimetype.Detect(raw).String()
	}
	return entity.Attachment{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(raw),
		Name:     name,
	}
}

// Decode recovers the original bytes from an attachment.
func (c *Codec) Decode(att entity.Attachment) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		return nil, errors.NewEncodingError(
			fmt.Sprintf("decode attachment %q", att.Name), err)
	}
	return raw, nil
}

// DataURI renders the attachment as a browser-consumable data URI
// (avatar display uses this form).
func (c *Codec) DataURI(att entity.Attachment) string {
	return fmt.Sprintf("data:%s;base64,%s", att.MimeType, att.Data)
}
