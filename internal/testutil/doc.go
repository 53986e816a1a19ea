// SPDX-License-Identifier: MPL-2.0

// Package testutil provides a controllable clock and cleanup helpers shared by
// tests across modcat. Clock is also the time source production code accepts,
// so the catalog cache and the SSH token store can be driven by FakeClock.
package testutil
