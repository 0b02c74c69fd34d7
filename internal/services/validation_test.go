package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUploadAllowsListedTypesWithinLimit(t *testing.T) {
	assert.NoError(t, ValidateUpload("image/jpeg", 10*megabyte))
	assert.NoError(t, ValidateUpload("video/mp4", gigabyte))
	assert.NoError(t, ValidateUpload("application/pdf", megabyte))
	// MIME comparison is case-insensitive.
	assert.NoError(t, ValidateUpload("IMAGE/PNG", megabyte))
	assert.NoError(t, ValidateUpload("  image/webp  ", megabyte))
}

func TestValidateUploadRejectsUnlistedTypes(t *testing.T) {
	assert.Error(t, ValidateUpload("application/x-msdownload", 100))
	assert.Error(t, ValidateUpload("image/x-icon", 100))
	assert.Error(t, ValidateUpload("", 100))
}

func TestValidateUploadEnforcesPerTypeCeilings(t *testing.T) {
	assert.NoError(t, ValidateUpload("image/jpeg", 25*megabyte))
	assert.Error(t, ValidateUpload("image/jpeg", 25*megabyte+1))

	// SVG has a tighter ceiling than raster images.
	assert.NoError(t, ValidateUpload("image/svg+xml", 5*megabyte))
	assert.Error(t, ValidateUpload("image/svg+xml", 6*megabyte))

	assert.Error(t, ValidateUpload("video/mp4", 2*gigabyte+1))
}

func TestValidateUploadRejectsZeroSize(t *testing.T) {
	assert.Error(t, ValidateUpload("image/jpeg", 0))
}
