package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rushteam/nextbasket/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("缺失 key 应返回 ErrStoreNotFound: %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, "k")
	if err != nil || string(v) != "v" {
		t.Errorf("Get = (%q, %v)", v, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Error("删除后应查不到")
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatal(err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || string(got["a"]) != "1" {
		t.Errorf("BatchGet = %v", got)
	}
}

func TestMemoryStoreZRangeDeterministic(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.ZAdd(ctx, "top", 3, "c")
	_ = s.ZAdd(ctx, "top", 5, "a")
	_ = s.ZAdd(ctx, "top", 3, "b")

	got, err := s.ZRange(ctx, "top", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	// 分数降序，同分按成员升序
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("ZRange = %v, 期望 [a b c]", got)
	}

	got, _ = s.ZRange(ctx, "top", 0, 1)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("截断后 = %v", got)
	}

	if got, _ := s.ZRange(ctx, "absent", 0, -1); got != nil {
		t.Errorf("缺失 key 应返回空: %v", got)
	}
}

func TestMemoryStoreZScore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.ZAdd(ctx, "top", 2.5, "a")
	score, err := s.ZScore(ctx, "top", "a")
	if err != nil || score != 2.5 {
		t.Errorf("ZScore = (%v, %v)", score, err)
	}
	if _, err := s.ZScore(ctx, "top", "missing"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Error("缺失成员应返回 ErrStoreNotFound")
	}
}

func TestMemoryStoreHash(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.HSet(ctx, "vectors", "a", []byte("[1,0]")); err != nil {
		t.Fatal(err)
	}
	v, err := s.HGet(ctx, "vectors", "a")
	if err != nil || string(v) != "[1,0]" {
		t.Errorf("HGet = (%q, %v)", v, err)
	}
	if _, err := s.HGet(ctx, "vectors", "missing"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Error("缺失 field 应返回 ErrStoreNotFound")
	}

	all, err := s.HGetAll(ctx, "vectors")
	if err != nil || len(all) != 1 {
		t.Errorf("HGetAll = (%v, %v)", all, err)
	}
	// 缺失 key 返回空表而非错误，调用方统一按遍历处理
	empty, err := s.HGetAll(ctx, "absent")
	if err != nil || len(empty) != 0 {
		t.Errorf("缺失 key 的 HGetAll = (%v, %v)", empty, err)
	}
}
