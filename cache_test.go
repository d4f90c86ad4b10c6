package shaderset

import (
	"errors"
	"sync"
	"testing"
)

func TestModuleCacheSharesModules(t *testing.T) {
	dev := newCountingDevice(t)
	mc := NewModuleCache(dev)

	a := buildSet(t, mustShader(t, StageVertex, 1, 2), mustShader(t, StageFragment, 3, 4))
	b := buildSet(t, mustShader(t, StageVertex, 1, 2))

	if err := a.Load(mc); err != nil {
		t.Fatal(err)
	}
	if err := b.Load(mc); err != nil {
		t.Fatal(err)
	}

	vs := a.Storage(StageVertex).Module()
	if b.Storage(StageVertex).Module() != vs {
		t.Error("identical bytecode produced distinct modules")
	}
	if mc.Refs(vs) != 2 {
		t.Errorf("Refs = %d, want 2", mc.Refs(vs))
	}
	if dev.created != 2 {
		t.Errorf("device created %d modules, want 2", dev.created)
	}
	stats := mc.Stats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Modules != 2 {
		t.Errorf("stats = %+v", stats)
	}

	a.Dispose(mc)
	if _, ok := dev.live[vs]; !ok {
		t.Error("shared module destroyed while still referenced")
	}
	b.Dispose(mc)
	dev.assertNoLeaks(t)

	if leaked := mc.Close(); leaked != 0 {
		t.Errorf("Close reported %d leaks, want 0", leaked)
	}
}

func TestModuleCacheCloseReleasesLeaks(t *testing.T) {
	dev := newCountingDevice(t)
	mc := NewModuleCache(dev)

	set := buildSet(t, mustShader(t, StageVertex, 5))
	if err := set.Load(mc); err != nil {
		t.Fatal(err)
	}

	if leaked := mc.Close(); leaked != 1 {
		t.Errorf("Close reported %d leaks, want 1", leaked)
	}
	dev.assertNoLeaks(t)

	if _, err := mc.CreateShaderModule([]uint32{1}, ""); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("CreateShaderModule after Close error = %v, want ErrCacheClosed", err)
	}
	if mc.Close() != 0 {
		t.Error("second Close reported leaks")
	}
}

func TestModuleCacheDeviceError(t *testing.T) {
	dev := newCountingDevice(t)
	dev.failAt = 1
	mc := NewModuleCache(dev)

	set := buildSet(t, mustShader(t, StageVertex, 1))
	if err := set.Load(mc); !errors.Is(err, ErrBackendCompile) {
		t.Errorf("Load error = %v, want ErrBackendCompile", err)
	}
	if mc.Stats().Modules != 0 {
		t.Error("failed module was cached")
	}
	// Unknown IDs are ignored.
	mc.DestroyShaderModule(42)
}

func TestModuleCacheRejectsInvalidID(t *testing.T) {
	dev := newCountingDevice(t)
	dev.invalidIDs = true
	mc := NewModuleCache(dev)

	for i := 0; i < 2; i++ {
		id, err := mc.CreateShaderModule([]uint32{1, 2, 3}, "")
		if !errors.Is(err, ErrBackendCompile) || id != InvalidModule {
			t.Fatalf("CreateShaderModule #%d = %d, %v, want ErrBackendCompile", i+1, id, err)
		}
	}
	if st := mc.Stats(); st.Modules != 0 || st.Hits != 0 {
		t.Errorf("stats = %+v, want nothing cached", st)
	}
	// Close must not hand the invalid ID back to the device.
	if leaked := mc.Close(); leaked != 0 {
		t.Errorf("Close reported %d leaks, want 0", leaked)
	}
}

func TestModuleCacheConcurrent(t *testing.T) {
	dev := newCountingDevice(t)
	mc := NewModuleCache(dev)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := mc.CreateShaderModule([]uint32{7, 7, 7}, "")
			if err != nil {
				t.Error(err)
				return
			}
			mc.DestroyShaderModule(id)
		}()
	}
	wg.Wait()
	dev.assertNoLeaks(t)
}

func TestReflectionCache(t *testing.T) {
	rc := NewReflectionCache(0)

	b, _ := Builder{}.WithVertex(spirvShader(t, StageVertex, uniformResource))
	b, _ = b.WithFragment(spirvShader(t, StageFragment, uniformResource))

	first, err := rc.Layout(b)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	second, err := rc.Layout(b)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(first.Bindings) != 1 || len(second.Bindings) != 1 {
		t.Fatalf("bindings = %d/%d, want 1", len(first.Bindings), len(second.Bindings))
	}
	if first.Bindings[0].Visibility != second.Bindings[0].Visibility {
		t.Error("cached layout differs")
	}

	stats := rc.Stats()
	if stats.Len != 2 {
		t.Errorf("cached %d modules, want 2", stats.Len)
	}
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
}

func TestReflectionCacheDoesNotCacheErrors(t *testing.T) {
	rc := NewReflectionCache(4)
	code, _ := FromWords([]uint32{1, 2, 3, 4, 5})

	for i := 0; i < 2; i++ {
		if _, err := rc.Module(code); err == nil {
			t.Fatal("Module succeeded on malformed bytecode")
		}
	}
	if rc.Stats().Len != 0 {
		t.Error("parse error was cached")
	}
	if _, err := rc.Module(Bytecode{}); !errors.Is(err, ErrInvalidBytecode) {
		t.Errorf("Module(zero) error = %v, want ErrInvalidBytecode", err)
	}
}
