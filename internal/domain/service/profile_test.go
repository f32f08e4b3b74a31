package service

import (
	"strings"
	"testing"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/repository"
	"github.com/aetheria/aetheria/server/internal/infrastructure/persistence"
	"github.com/aetheria/aetheria/server/internal/infrastructure/prompt"
)

func seededProfile() (*Profile, repository.ConversationStore) {
	seed := entity.Message{
		ID:              prompt.SeedMessageID,
		Role:            entity.RoleModel,
		Text:            prompt.SeedText,
		Translation:     prompt.SeedTranslation,
		ShowTranslation: true,
	}
	store := persistence.NewMemoryConversationStore(seed)
	return NewProfile(store, "Engene"), store
}

func TestProfile_Defaults(t *testing.T) {
	profile, _ := seededProfile()

	snap := profile.Snapshot()
	if snap.Name != "Engene" {
		t.Errorf("default name: got %q", snap.Name)
	}
	if snap.ThemeColor != DefaultThemeColor {
		t.Errorf("default theme: got %q", snap.ThemeColor)
	}
	if snap.SystemAvatar != DefaultSystemAvatar {
		t.Errorf("default system avatar: got %q", snap.SystemAvatar)
	}
}

func TestProfile_SetNameRewritesSeedOnce(t *testing.T) {
	profile, store := seededProfile()

	profile.SetName("Luna")

	seed := store.Messages()[0]
	if strings.Contains(seed.Text, prompt.SeedNameTokenKorean) {
		t.Error("Korean placeholder should be replaced in seed text")
	}
	if !strings.Contains(seed.Text, "Luna") {
		t.Errorf("seed text should carry the new name: %q", seed.Text)
	}
	if !strings.Contains(seed.Translation, "Luna") {
		t.Errorf("seed translation should carry the new name: %q", seed.Translation)
	}

	// A later rename updates the profile but never rewrites again.
	profile.SetName("Mia")
	if profile.Name() != "Mia" {
		t.Errorf("name: got %q", profile.Name())
	}
	if again := store.Messages()[0]; !strings.Contains(again.Text, "Luna") {
		t.Errorf("seed rewrite must happen at most once: %q", again.Text)
	}
}

func TestProfile_BlankNameKeepsCurrent(t *testing.T) {
	profile, store := seededProfile()

	profile.SetName("   ")
	if profile.Name() != "Engene" {
		t.Errorf("blank name should keep the default, got %q", profile.Name())
	}
	if seed := store.Messages()[0]; seed.Text != prompt.SeedText {
		t.Error("blank name must not touch the seed message")
	}
}

func TestProfile_SeedRewriteTouchesOnlySeed(t *testing.T) {
	profile, store := seededProfile()

	// Another model message that also contains the placeholder.
	store.Append(entity.NewModelMessage("m2", "엔진 잘 잤어?", "Engene 睡得好吗？"))

	profile.SetName("Luna")

	msgs := store.Messages()
	if !strings.Contains(msgs[1].Text, prompt.SeedNameTokenKorean) {
		t.Error("non-seed messages must keep their original text")
	}
}

func TestProfile_AvatarsAndTheme(t *testing.T) {
	profile, _ := seededProfile()

	profile.SetThemeColor("#8a2be2")
	profile.SetUserAvatar("data:image/png;base64,AAAA")
	profile.SetSystemAvatar("data:image/png;base64,BBBB")

	snap := profile.Snapshot()
	if snap.ThemeColor != "#8a2be2" {
		t.Errorf("theme: got %q", snap.ThemeColor)
	}
	if snap.UserAvatar != "data:image/png;base64,AAAA" {
		t.Errorf("user avatar: got %q", snap.UserAvatar)
	}
	if snap.SystemAvatar != "data:image/png;base64,BBBB" {
		t.Errorf("system avatar: got %q", snap.SystemAvatar)
	}
}
