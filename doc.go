// Package llmstream normalizes live token streams from mutually incompatible
// LLM provider wire formats into one canonical in-process event sequence.
//
// Design goals:
//   - Stable event model: every adapter, regardless of vendor protocol,
//     produces Events drawn from one closed set (text deltas, thinking spans,
//     tool calls, usage, completion, vendor errors).
//   - Correct under arbitrary chunk fragmentation: embedded reasoning markers
//     and multi-line JSON frames may split at any byte boundary, so decoding
//     is built on bounded-lookback state machines, not per-chunk scans.
//   - Single-owner state: all decoding state lives inside one adapter
//     instance with an explicit Reset; nothing is process-global.
//
// Adapter implementations live under providers/ and are responsible for
// mapping each provider's wire format onto the canonical model. Session glue
// (Session) feeds one adapter per turn and forwards decoded events to a
// bounded consumer channel; ThinkingRegistry correlates reasoning spans for
// UI-facing consumers.
package llmstream
