package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// ValidateSource compiles fully pre-processed WGSL source with naga to catch
// syntax and type errors before the shader module reaches the GPU driver.
// The SPIR-V output is discarded; only the compile result matters.
//
// Parameters:
//   - source: the pre-processed WGSL source to validate
//
// Returns:
//   - error: the naga compile error, or nil if the source is valid
func ValidateSource(source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("shader: WGSL validation failed: %w", err)
	}
	return nil
}
