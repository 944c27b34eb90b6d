// Package sharedmimeinfo reads the MIME type hierarchy installed by the [Shared MIME-info
// database], so that a type without handlers can fall back to a broader one. For example, a C
// source file (text/x-csrc) can be opened by any text/plain handler.
//
// [Shared MIME-info database]: https://specifications.freedesktop.org/shared-mime-info-spec/0.22/
package sharedmimeinfo
