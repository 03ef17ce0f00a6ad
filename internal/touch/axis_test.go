package touch

import "testing"

func TestResolutionConfigResetsMinimums(t *testing.T) {
	s := NewAxisStore(AxisConfig{MinX: 5, MaxX: 1000, MinY: 5, MaxY: 400, ResolutionX: 10, ResolutionY: 10})

	got := ResolutionConfig(2000, 800, 50)
	want := AxisConfig{MinX: 0, MaxX: 2000, MinY: 0, MaxY: 800, ResolutionX: 50, ResolutionY: 50}
	if got != want {
		t.Errorf("ResolutionConfig = %+v, want %+v", got, want)
	}

	s.Set(got)
	if s.Config() != want {
		t.Errorf("Config = %+v, want %+v", s.Config(), want)
	}

	// 最小値0・u16由来の最大値なので min <= max は常に成り立つ
	if s.Config().MinX > s.Config().MaxX || s.Config().MinY > s.Config().MaxY {
		t.Error("axis invariant violated: min > max")
	}
}

func TestResolutionConfigZeroExtents(t *testing.T) {
	got := ResolutionConfig(0, 0, 0)
	if got.MaxX != 0 || got.MaxY != 0 || got.ResolutionX != 0 {
		t.Errorf("ResolutionConfig(0,0,0) = %+v, want zeroed axes", got)
	}
}

func TestResolutionConfigIsPure(t *testing.T) {
	initial := AxisConfig{MinX: 0, MaxX: 1000, MinY: 0, MaxY: 400, ResolutionX: 10, ResolutionY: 10}
	s := NewAxisStore(initial)

	_ = ResolutionConfig(2000, 800, 50)
	if s.Config() != initial {
		t.Errorf("Config after ResolutionConfig = %+v, want untouched %+v", s.Config(), initial)
	}
}
