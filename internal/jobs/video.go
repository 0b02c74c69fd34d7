package jobs

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

const (
	posterWidth  = 1280
	posterHeight = 720
)

// VideoHandler verifies the uploaded object and renders a poster card used
// as the asset's thumbnail until a real frame grab exists. Frame extraction
// needs a codec toolchain this service does not ship; the poster keeps the
// variant pipeline uniform across types.
type VideoHandler struct {
	log *logger.Logger
}

func NewVideoHandler(baseLog *logger.Logger) *VideoHandler {
	return &VideoHandler{log: baseLog.With("handler", "VideoHandler")}
}

func (h *VideoHandler) Type() string { return domain.JobTypeProcessVideo }

func (h *VideoHandler) Run(jc *Context) error {
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

	exists, err := jc.Deps.Bucket.ObjectExists(jc.Ctx, asset.FileKey)
	if err != nil {
		return fmt.Errorf("stat original: %w", err)
	}
	if !exists {
		return Permanent(fmt.Errorf("object %s missing from storage", asset.FileKey))
	}

	png, err := renderPosterCard(asset.OriginalFilename)
	if err != nil {
		return fmt.Errorf("render poster: %w", err)
	}

	key := VariantKey(asset.ID, domain.VariantPoster, "png")
	if err := jc.Deps.Bucket.Upload(jc.Ctx, key, "image/png", bytes.NewReader(png)); err != nil {
		return fmt.Errorf("upload poster: %w", err)
	}
	if err := jc.SaveVariant(&domain.AssetVariant{
		AssetID:    asset.ID,
		Kind:       domain.VariantPoster,
		StorageKey: key,
		MimeType:   "image/png",
		Width:      posterWidth,
		Height:     posterHeight,
		SizeBytes:  int64(len(png)),
	}); err != nil {
		return err
	}

	return jc.Complete(map[string]any{"thumbnail_key": key})
}

func renderPosterCard(filename string) ([]byte, error) {
	dc := gg.NewContext(posterWidth, posterHeight)
	dc.SetHexColor("#14161f")
	dc.Clear()

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}

	// Play badge in the center.
	cx, cy := float64(posterWidth)/2, float64(posterHeight)/2
	dc.SetHexColor("#2a2f45")
	dc.DrawCircle(cx, cy-40, 72)
	dc.Fill()
	dc.SetHexColor("#e8eaf2")
	dc.MoveTo(cx-24, cy-80)
	dc.LineTo(cx-24, cy)
	dc.LineTo(cx+36, cy-40)
	dc.ClosePath()
	dc.Fill()

	label := filename
	if len(label) > 48 {
		label = label[:45] + "..."
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 36}))
	dc.SetHexColor("#e8eaf2")
	dc.DrawStringAnchored(label, cx, cy+96, 0.5, 0.5)

	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 22}))
	dc.SetHexColor("#8b90a5")
	dc.DrawStringAnchored("VIDEO", cx, cy+140, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
