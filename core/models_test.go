package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "Summer Vacation 2024",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "A much longer album title that should still hash consistently every time",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("Holidays")
	id2 := IDFromContent("Work Events")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestMediaItem_AnalysisRef(t *testing.T) {
	tests := []struct {
		name string
		item MediaItem
		want string
	}{
		{
			name: "photo uses file ref",
			item: MediaItem{Kind: KindPhoto, FileRef: "photos/a.jpg", ThumbRef: "thumbs/a.jpg"},
			want: "photos/a.jpg",
		},
		{
			name: "video uses thumbnail",
			item: MediaItem{Kind: KindVideo, FileRef: "videos/b.mp4", ThumbRef: "thumbs/b.jpg"},
			want: "thumbs/b.jpg",
		},
		{
			name: "video without thumbnail falls back to file ref",
			item: MediaItem{Kind: KindVideo, FileRef: "videos/c.mp4"},
			want: "videos/c.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.AnalysisRef(); got != tt.want {
				t.Errorf("AnalysisRef() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMediaItem_SearchText(t *testing.T) {
	item := MediaItem{
		Title:   "Beach day",
		Caption: "a dog running on the sand",
		Tags:    []string{"vacation"},
		AITags:  []string{"dog", "beach"},
	}

	got := item.SearchText()
	want := "Beach day a dog running on the sand vacation dog beach"
	if got != want {
		t.Errorf("SearchText() = %q, want %q", got, want)
	}
}

func TestGrant_AllowsAlbum(t *testing.T) {
	album := IDFromContent("Family")
	other := IDFromContent("Friends")

	tests := []struct {
		name  string
		grant Grant
		album ID
		want  bool
	}{
		{
			name:  "site admin allows everything",
			grant: Grant{Role: RoleSiteAdmin},
			album: album,
			want:  true,
		},
		{
			name:  "album admin allows granted album",
			grant: Grant{Role: RoleAlbumAdmin, AlbumIds: []ID{album}},
			album: album,
			want:  true,
		},
		{
			name:  "album admin denies other album",
			grant: Grant{Role: RoleAlbumAdmin, AlbumIds: []ID{album}},
			album: other,
			want:  false,
		},
		{
			name:  "no role denies everything",
			grant: Grant{Role: RoleNone},
			album: album,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.grant.AllowsAlbum(tt.album); got != tt.want {
				t.Errorf("AllowsAlbum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessingStatus_String(t *testing.T) {
	tests := []struct {
		status ProcessingStatus
		want   string
	}{
		{StatusPending, "pending"},
		{StatusProcessing, "processing"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{ProcessingStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ProcessingStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
