// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package retry runs generation attempts under a bounded retry policy.
//
// A Coordinator makes one initial attempt plus up to MaxRetries more, waiting
// a fixed Delay in between. Only generic and transient failures are retried:
// an error implementing Classified with Transient() == false stops the loop
// at once. Cancellation stops the loop immediately, including during the
// delay.
//
// # Key Types
//
//   - Coordinator: retry policy with an injectable sleep
//   - Error: final failure annotated with the number of attempts made
//   - Classified: implemented by errors that know whether they are transient
//
// # Usage
//
//	coord := retry.New()
//	err := coord.Do(ctx, func(ctx context.Context, attempt int) error {
//	    text, err = client.Generate(ctx, model, prompt)
//	    return err
//	})
package retry
