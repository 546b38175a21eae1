// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package polls is the voting core: Factory creates polls and sends
// invitations, BallotProcessor casts at most one ballot per participant,
// and TallyEngine counts the results. Persistence goes through PollStore.
package polls
