// Package naming turns playlist names into output identities.
//
// [Sanitize] and [BaseIdentity] reduce a free-form name to a filesystem-safe
// base. [Allocator] then reserves a collision-free identity per task by
// creating an empty placeholder at the final output path, adding -2, -3, ...
// when the base is already taken on disk or earlier in the run.
package naming
