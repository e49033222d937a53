// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity maps member IDs to public account handles.
//
// Mappings are opt-in: a member registers their handle with the
// account.register command and can be removed with account.unregister.
// Resolution never fails: an unmapped ID resolves to a redacted form
// (the first four characters followed by "****") instead of an error,
// so rosters can always be rendered without leaking full badge IDs of
// members who never registered.
//
// The member-ID format (eight alphanumeric characters, the badge
// block layout of the reference deployment) is validated only at
// registration time. Scan events carry whatever the badge yields.
package identity
