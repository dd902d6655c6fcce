// Copyright 2025 Sifter Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package batch

import (
	"math/rand"
	"time"
)

// BackoffPolicy computes the delay imposed before retry number attempt
// (1-based: attempt 1 is the delay after the first failure). Policies are
// substitutable without touching processor call sites.
type BackoffPolicy interface {
	Delay(attempt int) time.Duration
}

// LinearBackoff scales the base delay by the attempt number:
// base, 2*base, 3*base, ...
// This is the processor's default policy.
type LinearBackoff struct {
	Base time.Duration
}

func (b LinearBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return b.Base * time.Duration(attempt)
}

// ExponentialBackoff doubles the base delay on each attempt:
// base, 2*base, 4*base, ...
type ExponentialBackoff struct {
	Base time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	delay := b.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// JitteredBackoff wraps another policy and adds up to Jitter of random
// spread, which avoids retry storms when several workloads share a service.
type JitteredBackoff struct {
	Policy BackoffPolicy
	Jitter time.Duration
}

func (b JitteredBackoff) Delay(attempt int) time.Duration {
	delay := b.Policy.Delay(attempt)
	if b.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return delay
}
