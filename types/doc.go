// Package types provides core types used across the schemaflow library.
// This package has ZERO dependencies on other schemaflow packages to avoid
// circular imports. All other packages should import types from here.
package types
