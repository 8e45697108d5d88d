// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diagram validates generated diagrams and repairs the ones that
// fail to render.
//
// The render engine is consumed through the Renderer interface. Because the
// mermaid engine usually returns an error image instead of failing, IsFailure
// inspects render output for the engine's error annotations. A failing
// diagram is tracked by an Instance whose status moves through the healing
// state machine:
//
//	Idle --render fails--> Healing --fixed and renders--> Healed
//	                          |  ^
//	                          |  +-- still failing, attempts < max (after backoff)
//	                          +----- attempts exhausted or no usable source --> Failed
//
// Healed and Failed are terminal for automatic healing. A manual Retry may
// start one more cycle from a failed instance while attempts remain.
package diagram
