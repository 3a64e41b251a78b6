package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnRunStart(ctx, "run-1", 3)
	p.OnPackageStart(ctx, "acme/weather")
	p.OnRelease(ctx, "acme/weather", "1.0.0", "extracted", time.Millisecond)
	p.OnPackageComplete(ctx, "acme/weather", 1, 0, time.Second)
	p.OnRunComplete(ctx, "run-1", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnDedupCheck(ctx, "ops@acme.test", true)
	c.OnPersist(ctx, 2, nil)

	n := NoopNotifyHooks{}
	n.OnSend(ctx, "ops@acme.test", 4, errors.New("smtp down"))
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Notify().(NoopNotifyHooks); !ok {
		t.Error("Notify() should return NoopNotifyHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customNotify := &testNotifyHooks{}
	SetNotifyHooks(customNotify)
	if Notify() != customNotify {
		t.Error("SetNotifyHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Notify().(NoopNotifyHooks); !ok {
		t.Error("Reset() should restore NoopNotifyHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testCacheHooks{}
	SetCacheHooks(custom)
	SetCacheHooks(nil)

	if Cache() != custom {
		t.Error("SetCacheHooks(nil) should be ignored")
	}

	Reset()
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testNotifyHooks struct{ NoopNotifyHooks }
