/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storage

import (
	"context"
	"testing"
)

func TestAfterCommit(t *testing.T) {
	var ran []int

	AfterCommit(context.Background(), func() { ran = append(ran, 0) })
	if len(ran) != 1 {
		t.Fatalf("expected immediate run without hooks, got %v", ran)
	}

	ctx, hooks := WithCommitHooks(context.Background())
	AfterCommit(ctx, func() { ran = append(ran, 1) })
	AfterCommit(ctx, func() { ran = append(ran, 2) })
	if hooks.Len() != 2 || len(ran) != 1 {
		t.Fatalf("expected two deferred hooks, got %d (ran %v)", hooks.Len(), ran)
	}

	hooks.Run()
	if len(ran) != 3 || ran[1] != 1 || ran[2] != 2 {
		t.Errorf("expected hooks in registration order, got %v", ran)
	}

	AfterCommit(ctx, func() { ran = append(ran, 3) })
	hooks.Discard()
	hooks.Run()
	if len(ran) != 3 {
		t.Errorf("expected discarded hook not to run, got %v", ran)
	}
}

func TestPanickingHookDoesNotStopOthers(t *testing.T) {
	var ran []int

	ctx, hooks := WithCommitHooks(context.Background())
	AfterCommit(ctx, func() { panic("listener bug") })
	AfterCommit(ctx, func() { ran = append(ran, 1) })
	AfterCommit(ctx, func() { panic(context.Canceled) })
	AfterCommit(ctx, func() { ran = append(ran, 3) })

	hooks.Run()
	if len(ran) != 2 || ran[0] != 1 || ran[1] != 3 {
		t.Errorf("expected every hook after a panic to run, got %v", ran)
	}
	if hooks.Len() != 0 {
		t.Errorf("expected hooks to be consumed, got %d", hooks.Len())
	}
}
