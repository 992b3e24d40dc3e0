// Package verification runs every access attempt through the gate pipeline and
// produces exactly one decision: granted, rejected, or waiting for
// co-authentication.
package verification

import (
	"context"
	"fmt"
	"log"
	"time"

	"door-access-control-plane/backend/internal/multiperson"
	mpdomain "door-access-control-plane/backend/internal/multiperson/domain"
	policydomain "door-access-control-plane/backend/internal/policy/domain"
	"door-access-control-plane/backend/internal/policy/engine"
	"door-access-control-plane/backend/internal/telemetry"
	eventdomain "door-access-control-plane/backend/internal/telemetry/domain"
	"door-access-control-plane/backend/internal/verification/domain"
)

// ConfigResolver resolves per-area policy configuration.
type ConfigResolver interface {
	Resolve(ctx context.Context, areaID string) (*policydomain.AreaConfig, error)
}

// EligibilityGate answers whether the user may attempt access at all.
type EligibilityGate interface {
	IsEligible(ctx context.Context, userID string) bool
}

// WindowGate answers whether the attempt falls inside an allowed time window.
type WindowGate interface {
	IsWithinWindow(ctx context.Context, userID, areaID string, at time.Time) bool
}

// PassbackGuard checks and records passages for the anti-passback rule.
type PassbackGuard interface {
	Check(ctx context.Context, cfg policydomain.AntiPassback, userID, deviceID, direction string, at time.Time) bool
	Record(ctx context.Context, userID, deviceID, areaID, direction, verifyMethod string, at time.Time)
}

// InterlockCoordinator arbitrates interlock groups.
type InterlockCoordinator interface {
	TryAcquire(ctx context.Context, cfg *policydomain.AreaConfig, deviceID string) bool
	Release(ctx context.Context, cfg *policydomain.AreaConfig, deviceID string)
}

// RuleGate evaluates an area's custom deny rules.
type RuleGate interface {
	Allows(ctx context.Context, rules string, input engine.RuleInput) bool
}

// CoAuthCoordinator runs the multi-person session state machine.
type CoAuthCoordinator interface {
	Verify(ctx context.Context, areaID, deviceID, userID string, requiredCount int, at time.Time) multiperson.Outcome
}

// DeviceRegistry resolves a device's area when the attempt does not carry one.
type DeviceRegistry interface {
	AreaFor(ctx context.Context, deviceID string) (string, error)
}

// DecisionLogger records one audit row per decision, best effort.
type DecisionLogger interface {
	LogDecision(attempt *domain.AccessAttempt, decision *domain.Decision, at time.Time)
}

// Orchestrator runs the gates in a fixed order: blacklist, time window,
// anti-passback, interlock, custom rules, multi-person. The first failing gate
// decides; later gates never run, so the interlock lock is only taken after
// the attempt has survived the cheap checks.
type Orchestrator struct {
	configs   ConfigResolver
	blacklist EligibilityGate
	windows   WindowGate
	passback  PassbackGuard
	interlock InterlockCoordinator
	rules     RuleGate
	coauth    CoAuthCoordinator
	devices   DeviceRegistry
	auditor   DecisionLogger
	emitter   telemetry.EventEmitter
	metrics   *telemetry.Metrics
	nowF      func() time.Time
}

// Deps bundles the orchestrator's collaborators. devices, auditor, emitter and
// metrics may be nil; the corresponding concern is skipped.
type Deps struct {
	Configs   ConfigResolver
	Blacklist EligibilityGate
	Windows   WindowGate
	Passback  PassbackGuard
	Interlock InterlockCoordinator
	Rules     RuleGate
	CoAuth    CoAuthCoordinator
	Devices   DeviceRegistry
	Auditor   DecisionLogger
	Emitter   telemetry.EventEmitter
	Metrics   *telemetry.Metrics
}

// NewOrchestrator wires the verification pipeline.
func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		configs:   d.Configs,
		blacklist: d.Blacklist,
		windows:   d.Windows,
		passback:  d.Passback,
		interlock: d.Interlock,
		rules:     d.Rules,
		coauth:    d.CoAuth,
		devices:   d.Devices,
		auditor:   d.Auditor,
		emitter:   d.Emitter,
		metrics:   d.Metrics,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// Verify runs the attempt through the pipeline and returns the decision.
// Every call produces exactly one audit row and one decision event.
func (o *Orchestrator) Verify(ctx context.Context, attempt *domain.AccessAttempt) *domain.Decision {
	started := o.nowF()
	decision := o.decide(ctx, attempt)
	o.report(ctx, attempt, decision, started)
	return decision
}

func (o *Orchestrator) decide(ctx context.Context, attempt *domain.AccessAttempt) *domain.Decision {
	if attempt == nil || !attempt.Valid() {
		return reject(domain.ReasonInvalidAttempt, "attempt is missing user, device or direction")
	}

	at := attempt.Timestamp
	if at.IsZero() {
		at = o.nowF()
	}

	if attempt.AreaID == "" && o.devices != nil {
		areaID, err := o.devices.AreaFor(ctx, attempt.DeviceID)
		if err != nil {
			log.Printf("verification: area lookup failed for device %s, proceeding without area: %v", attempt.DeviceID, err)
		}
		attempt.AreaID = areaID
	}

	cfg, err := o.configs.Resolve(ctx, attempt.AreaID)
	if err != nil {
		// Degraded config: optional features are off, anti-passback keeps its
		// secure default. Resolve already logged the cause.
		log.Printf("verification: using default config for area %s", attempt.AreaID)
	}

	if !o.blacklist.IsEligible(ctx, attempt.UserID) {
		return reject(domain.ReasonBlacklisted, fmt.Sprintf("user %s is not eligible for access", attempt.UserID))
	}

	if !o.windows.IsWithinWindow(ctx, attempt.UserID, attempt.AreaID, at) {
		return reject(domain.ReasonOutsideWindow, "attempt is outside the allowed time windows")
	}

	if !o.passback.Check(ctx, cfg.AntiPassback, attempt.UserID, attempt.DeviceID, attempt.Direction, at) {
		return reject(domain.ReasonAntiPassback,
			fmt.Sprintf("repeated %s passage within %ds", attempt.Direction, cfg.AntiPassback.WindowSeconds))
	}

	if !o.interlock.TryAcquire(ctx, cfg, attempt.DeviceID) {
		return reject(domain.ReasonInterlockHeld, "another door in the interlock group is open")
	}

	if o.rules != nil && cfg.CustomRules != "" {
		input := engine.RuleInput{
			UserID:       attempt.UserID,
			DeviceID:     attempt.DeviceID,
			AreaID:       attempt.AreaID,
			Direction:    attempt.Direction,
			VerifyMethod: attempt.VerifyMethod,
			Hour:         at.Hour(),
			Weekday:      isoWeekday(at),
		}
		if !o.rules.Allows(ctx, cfg.CustomRules, input) {
			// The door will not open; free the group for the other doors.
			o.interlock.Release(ctx, cfg, attempt.DeviceID)
			return reject(domain.ReasonCustomRuleDenied, "denied by area custom rules")
		}
	}

	if cfg.MultiPersonRequired() {
		outcome := o.coauth.Verify(ctx, attempt.AreaID, attempt.DeviceID, attempt.UserID, cfg.MultiPerson.RequiredCount, at)
		switch outcome.Status {
		case mpdomain.StatusWaiting:
			// Not a failure: the interlock lock stays held so the door can open
			// as soon as the remaining participants authenticate.
			return &domain.Decision{
				Granted:    false,
				ReasonCode: domain.ReasonAwaitingOthers,
				Reason:     fmt.Sprintf("waiting for co-authentication (%d of %d)", outcome.Current, outcome.Required),
				Waiting: &domain.WaitingState{
					SessionID: outcome.SessionID,
					Current:   outcome.Current,
					Required:  outcome.Required,
				},
			}
		case mpdomain.StatusTimeout:
			// The door will not open; free the group for the other doors.
			o.interlock.Release(ctx, cfg, attempt.DeviceID)
			return reject(domain.ReasonCoAuthTimeout, "co-authentication window expired, authenticate again")
		}
	}

	// Granted. Record the passage after the decision so a rejected attempt
	// never creates an anti-passback record.
	o.passback.Record(context.WithoutCancel(ctx), attempt.UserID, attempt.DeviceID, attempt.AreaID,
		attempt.Direction, attempt.VerifyMethod, at)

	return &domain.Decision{Granted: true, ReasonCode: domain.ReasonGranted, Reason: "access granted"}
}

func (o *Orchestrator) report(ctx context.Context, attempt *domain.AccessAttempt, decision *domain.Decision, started time.Time) {
	at := o.nowF()
	if o.auditor != nil {
		o.auditor.LogDecision(attempt, decision, at)
	}
	if o.emitter != nil && attempt != nil {
		telemetry.EmitAsync(o.emitter, ctx, &eventdomain.DecisionEvent{
			UserID:       attempt.UserID,
			DeviceID:     attempt.DeviceID,
			AreaID:       attempt.AreaID,
			Direction:    attempt.Direction,
			VerifyMethod: attempt.VerifyMethod,
			Granted:      decision.Granted,
			ReasonCode:   decision.ReasonCode,
			Reason:       decision.Reason,
			Waiting:      decision.Waiting != nil,
			DecidedAt:    at,
		})
	}
	o.metrics.RecordDecision(ctx, decision.Granted, decision.Waiting != nil, decision.ReasonCode,
		float64(at.Sub(started))/float64(time.Millisecond))
}

func reject(code, reason string) *domain.Decision {
	return &domain.Decision{Granted: false, ReasonCode: code, Reason: reason}
}

// isoWeekday maps time.Weekday to 1=Monday..7=Sunday.
func isoWeekday(at time.Time) int {
	wd := int(at.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
