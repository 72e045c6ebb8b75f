// Package model defines the provider-agnostic generation contract used by the
// router and the specialists.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Classify provider failures as transient or fatal (ProviderError)
//   - Facilitate lightweight scripting for tests (MockProvider)
//
// Providers (OpenAI, Anthropic, Gemini) live in sub-packages and implement
// Provider so higher layers remain decoupled from vendor SDKs.
package model
