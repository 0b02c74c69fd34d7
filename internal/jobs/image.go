package jobs

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

const (
	thumbnailMaxEdge = 320
	previewMaxEdge   = 1024
	jpegQuality      = 85
)

// ImageHandler derives a thumbnail and a preview rendition from an uploaded
// image. Both renditions land under deterministic keys, so a redelivered job
// overwrites its own previous output.
type ImageHandler struct {
	log *logger.Logger
}

func NewImageHandler(baseLog *logger.Logger) *ImageHandler {
	return &ImageHandler{log: baseLog.With("handler", "ImageHandler")}
}

func (h *ImageHandler) Type() string { return domain.JobTypeProcessImage }

func (h *ImageHandler) Run(jc *Context) error {
	asset, err := jc.Deps.Assets.GetByID(dbcOf(jc), jc.Job.AssetID)
	if err != nil {
		return err
	}
	if asset == nil {
		return Permanent(fmt.Errorf("asset %s not found", jc.Job.AssetID))
	}
	if err := jc.MarkProcessing(); err != nil {
		return err
	}

	rc, err := jc.Deps.Bucket.Download(jc.Ctx, asset.FileKey)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}
	defer rc.Close()

	src, _, err := image.Decode(rc)
	if err != nil {
		// Undecodable bytes will not improve on retry.
		return Permanent(fmt.Errorf("decode %s: %w", asset.OriginalFilename, err))
	}

	thumbKey, err := h.renderScaled(jc, asset, src, domain.VariantThumbnail, thumbnailMaxEdge)
	if err != nil {
		return err
	}
	if _, err := h.renderScaled(jc, asset, src, domain.VariantPreview, previewMaxEdge); err != nil {
		return err
	}

	return jc.Complete(map[string]any{"thumbnail_key": thumbKey})
}

func (h *ImageHandler) renderScaled(jc *Context, asset *domain.Asset, src image.Image, kind domain.VariantKind, maxEdge int) (string, error) {
	scaled := scaleDown(src, maxEdge)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}

	key := VariantKey(asset.ID, kind, "jpg")
	if err := jc.Deps.Bucket.Upload(jc.Ctx, key, "image/jpeg", bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("upload %s: %w", kind, err)
	}

	bounds := scaled.Bounds()
	if err := jc.SaveVariant(&domain.AssetVariant{
		AssetID:    asset.ID,
		Kind:       kind,
		StorageKey: key,
		MimeType:   "image/jpeg",
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		SizeBytes:  int64(buf.Len()),
	}); err != nil {
		return "", err
	}
	return key, nil
}

// scaleDown fits src inside a maxEdge square, preserving aspect ratio.
// Images already small enough are re-encoded at original size.
func scaleDown(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Copy(out, image.Point{}, src, b, draw.Src, nil)
		return out
	}
	if w > h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), src, b, draw.Src, nil)
	return out
}
