package sovdevlogger

import "testing"

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "TRACE"},
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelFatal, "FATAL"},
		{Level(99), "INFO"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevel_isErrorClass(t *testing.T) {
	errorClass := map[Level]bool{
		LevelTrace: false,
		LevelDebug: false,
		LevelInfo:  false,
		LevelWarn:  false,
		LevelError: true,
		LevelFatal: true,
	}
	for level, want := range errorClass {
		if got := level.isErrorClass(); got != want {
			t.Errorf("%s.isErrorClass() = %v, want %v", level, got, want)
		}
	}
}

func TestLevel_severityNumber(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{LevelTrace, 1},
		{LevelDebug, 5},
		{LevelInfo, 9},
		{LevelWarn, 13},
		{LevelError, 17},
		{LevelFatal, 21},
		{Level(99), 9},
	}
	for _, tt := range tests {
		if got := tt.level.severityNumber(); got != tt.want {
			t.Errorf("%s.severityNumber() = %d, want %d", tt.level, got, tt.want)
		}
	}
}
