package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestWithTimeout_AddsDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline too far: %s", time.Until(deadline))
	}
}

func TestWithTimeout_KeepsShorterParentDeadline(t *testing.T) {
	parent, cancelParent := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelParent()

	ctx, cancel := WithTimeout(parent, time.Hour)
	defer cancel()

	deadline, _ := ctx.Deadline()
	if time.Until(deadline) > 50*time.Millisecond {
		t.Errorf("parent deadline should win, got %s", time.Until(deadline))
	}
}

func TestWithTimeout_PassesSessionContextThrough(t *testing.T) {
	sessCtx := mongo.NewSessionContext(context.Background(), nil)

	ctx, cancel := WithTimeout(sessCtx, time.Second)
	defer cancel()

	if ctx != sessCtx {
		t.Error("session context must be returned unchanged")
	}
	if _, ok := ctx.Deadline(); ok {
		t.Error("session context should not gain a deadline")
	}
}
