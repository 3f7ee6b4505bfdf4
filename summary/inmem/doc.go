// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package inmem implements the summary store interface in memory. It is meant to
get an instance of causeway up and running quickly and to back tests. Nothing
survives a restart, so it is recommended for test environments only.
*/
package inmem
