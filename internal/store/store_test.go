package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lostfound/lostfound/internal/model"
)

// testItem returns a valid item with the given title and type.
func testItem(title, itemType string) *model.Item {
	return &model.Item{
		Name:        "A",
		Email:       "a@x.com",
		PhoneNumber: "0123456789",
		Title:       title,
		Description: title + " description",
		Location:    "Library",
		ItemType:    itemType,
		Image:       "1700000000000000000-" + title + ".jpg",
	}
}

// runStoreTests exercises the Store contract against any backend.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetItem", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		item := testItem("Wallet", model.ItemTypeLost)
		if err := s.CreateItem(ctx, item); err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
		if item.ID == "" {
			t.Fatal("expected generated id")
		}
		if item.CreatedAt.IsZero() || !item.CreatedAt.Equal(item.UpdatedAt) {
			t.Errorf("unexpected timestamps: %v / %v", item.CreatedAt, item.UpdatedAt)
		}

		got, err := s.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("GetItem: %v", err)
		}
		if got == nil {
			t.Fatal("expected item, got nil")
		}
		if got.Title != "Wallet" || got.ItemType != model.ItemTypeLost || got.Image != item.Image {
			t.Errorf("unexpected item: %+v", got)
		}
		if !got.CreatedAt.Equal(item.CreatedAt) {
			t.Errorf("createdAt = %v, want %v", got.CreatedAt, item.CreatedAt)
		}
	})

	t.Run("GetMissingItem", func(t *testing.T) {
		s := newStore(t)
		got, err := s.GetItem(context.Background(), "00000000-0000-0000-0000-000000000000")
		if err != nil {
			t.Fatalf("GetItem: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for missing item, got %+v", got)
		}
	})

	t.Run("CreateItemRejectsMissingFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		item := testItem("Keys", model.ItemTypeFound)
		item.Location = ""
		err := s.CreateItem(ctx, item)

		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Violations["location"] == "" {
			t.Errorf("expected location violation, got %v", ve.Violations)
		}

		items, _ := s.ListItems(ctx, ItemFilter{})
		if len(items) != 0 {
			t.Errorf("expected nothing stored, got %d items", len(items))
		}
	})

	t.Run("ListItemsNewestFirstAndFiltered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, it := range []*model.Item{
			testItem("Umbrella", model.ItemTypeFound),
			testItem("Phone", model.ItemTypeLost),
			testItem("Laptop", model.ItemTypeLost),
		} {
			if err := s.CreateItem(ctx, it); err != nil {
				t.Fatalf("CreateItem: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
		}

		all, err := s.ListItems(ctx, ItemFilter{})
		if err != nil {
			t.Fatalf("ListItems: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 items, got %d", len(all))
		}
		if all[0].Title != "Laptop" || all[2].Title != "Umbrella" {
			t.Errorf("expected newest first, got %q..%q", all[0].Title, all[2].Title)
		}

		lost, _ := s.ListItems(ctx, ItemFilter{Type: model.ItemTypeLost})
		if len(lost) != 2 {
			t.Errorf("expected 2 lost items, got %d", len(lost))
		}

		found, _ := s.ListItems(ctx, ItemFilter{Query: "UMBR"})
		if len(found) != 1 || found[0].Title != "Umbrella" {
			t.Errorf("expected search to match Umbrella, got %+v", found)
		}

		limited, _ := s.ListItems(ctx, ItemFilter{Limit: 1})
		if len(limited) != 1 || limited[0].Title != "Laptop" {
			t.Errorf("expected only the newest item, got %+v", limited)
		}
	})

	t.Run("DeleteItemTwice", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		item := testItem("Scarf", model.ItemTypeFound)
		s.CreateItem(ctx, item)

		ok, err := s.DeleteItem(ctx, item.ID)
		if err != nil || !ok {
			t.Fatalf("first delete = %v, %v; want true, nil", ok, err)
		}
		ok, err = s.DeleteItem(ctx, item.ID)
		if err != nil || ok {
			t.Fatalf("second delete = %v, %v; want false, nil", ok, err)
		}
		if got, _ := s.GetItem(ctx, item.ID); got != nil {
			t.Error("expected item to be gone")
		}
	})

	t.Run("SetLoserContact", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		item := testItem("Ring", model.ItemTypeFound)
		s.CreateItem(ctx, item)

		got, err := s.SetLoserContact(ctx, item.ID, "9876543210", "")
		if err != nil {
			t.Fatalf("SetLoserContact: %v", err)
		}
		if got.LoserPhone != "9876543210" || got.LoserEmail != "" {
			t.Errorf("unexpected contact: %q %q", got.LoserPhone, got.LoserEmail)
		}

		got, _ = s.SetLoserContact(ctx, item.ID, "", "b@y.com")
		if got.LoserPhone != "9876543210" || got.LoserEmail != "b@y.com" {
			t.Errorf("expected merge, got %q %q", got.LoserPhone, got.LoserEmail)
		}

		missing, err := s.SetLoserContact(ctx, "00000000-0000-0000-0000-000000000000", "1", "")
		if err != nil || missing != nil {
			t.Errorf("expected nil, nil for missing item; got %v, %v", missing, err)
		}
	})

	t.Run("CreateUserNormalizesAndRejectsDuplicates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := &model.User{Name: "A", Email: "  A@X.com ", PasswordHash: "hash"}
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if u.Email != "a@x.com" {
			t.Errorf("expected normalized email, got %q", u.Email)
		}

		dup := &model.User{Name: "B", Email: "a@x.COM", PasswordHash: "hash2"}
		if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}

		got, err := s.GetUserByEmail(ctx, "A@x.com")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if got == nil || got.ID != u.ID || got.PasswordHash != "hash" {
			t.Errorf("unexpected user: %+v", got)
		}

		byID, _ := s.GetUser(ctx, u.ID)
		if byID == nil || byID.Name != "A" {
			t.Errorf("unexpected user by id: %+v", byID)
		}

		missing, err := s.GetUserByEmail(ctx, "nobody@x.com")
		if err != nil || missing != nil {
			t.Errorf("expected nil, nil for missing user; got %v, %v", missing, err)
		}
	})

	t.Run("CreateUserRequiresFields", func(t *testing.T) {
		s := newStore(t)
		err := s.CreateUser(context.Background(), &model.User{Email: "a@x.com"})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("UpdateUserProfile", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := &model.User{Name: "A", Email: "a@x.com", PasswordHash: "hash", City: "Old"}
		s.CreateUser(ctx, u)

		bio := "Finds things"
		city := "Ljubljana"
		got, err := s.UpdateUserProfile(ctx, u.ID, ProfileUpdate{Bio: &bio, City: &city})
		if err != nil {
			t.Fatalf("UpdateUserProfile: %v", err)
		}
		if got.Bio != bio || got.City != city || got.Name != "A" {
			t.Errorf("unexpected user after update: %+v", got)
		}
		if got.PasswordHash != "hash" {
			t.Error("profile update changed the password hash")
		}

		missing, err := s.UpdateUserProfile(ctx, "00000000-0000-0000-0000-000000000000", ProfileUpdate{Bio: &bio})
		if err != nil || missing != nil {
			t.Errorf("expected nil, nil for missing user; got %v, %v", missing, err)
		}
	})
}
