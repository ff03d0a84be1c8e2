package types

import "fmt"

// FormatError reports a malformed or unsupported sample container.
type FormatError struct {
	Asset  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Asset == "" {
		return "invalid WAV: " + e.Reason
	}
	return fmt.Sprintf("invalid WAV %q: %s", e.Asset, e.Reason)
}

// AssetNotFoundError reports a sound with no sample behind it.
type AssetNotFoundError struct {
	Asset string
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("sample asset %q not found", e.Asset)
}

// IOError wraps a failed write of the output file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// SpecError reports an invalid mix description.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid mix %s: %s", e.Field, e.Reason)
}
