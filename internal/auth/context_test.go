package auth

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ac := AuthContext{UserID: 7, FamilyID: 3, Role: "parent", SessionID: 11}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
	if FamilyID(ctx) != 3 {
		t.Errorf("FamilyID = %d, want 3", FamilyID(ctx))
	}
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
	if !IsParent(ctx) {
		t.Error("expected parent role")
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no auth context")
	}
	if FamilyID(ctx) != 0 || UserID(ctx) != 0 {
		t.Error("expected zero IDs outside a session")
	}
	if IsParent(ctx) {
		t.Error("expected no role outside a session")
	}
}
