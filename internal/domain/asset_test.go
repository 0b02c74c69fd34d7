package domain

import "testing"

func TestTypeFromMime(t *testing.T) {
	cases := []struct {
		mime string
		want AssetType
	}{
		{"image/jpeg", AssetTypeImage},
		{"IMAGE/PNG", AssetTypeImage},
		{"video/mp4", AssetTypeVideo},
		{"audio/mpeg", AssetTypeAudio},
		{"model/gltf-binary", AssetTypeModel3D},
		{"application/pdf", AssetTypeDocument},
		{"text/plain", AssetTypeDocument},
		{"font/woff2", AssetTypeOther},
		{"", AssetTypeOther},
		{"garbage", AssetTypeOther},
	}
	for _, tc := range cases {
		if got := TypeFromMime(tc.mime); got != tc.want {
			t.Fatalf("TypeFromMime(%q) = %s, want %s", tc.mime, got, tc.want)
		}
	}
}

func TestReviewStatusTerminal(t *testing.T) {
	if ReviewPending.Terminal() || ReviewNeedsRevision.Terminal() {
		t.Fatalf("PENDING and NEEDS_REVISION must allow further transitions")
	}
	if !ReviewApproved.Terminal() || !ReviewRejected.Terminal() {
		t.Fatalf("APPROVED and REJECTED must be terminal")
	}
}

func TestRoleCanReview(t *testing.T) {
	if RoleMember.CanReview() {
		t.Fatalf("members must not decide reviews")
	}
	if !RoleReviewer.CanReview() || !RoleAdmin.CanReview() {
		t.Fatalf("reviewers and admins decide reviews")
	}
}
