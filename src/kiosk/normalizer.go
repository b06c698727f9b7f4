package kiosk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Fields of the marketplace object as returned by the node
type marketplaceFields struct {
	TreasuryCap struct {
		Fields struct {
			TotalSupply json.RawMessage `json:"total_supply"`
		} `json:"fields"`
	} `json:"treasury_cap"`
	RewardPool     json.RawMessage `json:"reward_pool"`
	LiquidityVault json.RawMessage `json:"liquidity_vault"`
	Kiosk          struct {
		Fields kioskFields `json:"fields"`
	} `json:"kiosk"`
}

type kioskFields struct {
	BaseSonarPrice   json.RawMessage `json:"base_sonar_price"`
	PriceOverride    json.RawMessage `json:"price_override"`
	CurrentTier      json.RawMessage `json:"current_tier"`
	SonarReserve     json.RawMessage `json:"sonar_reserve"`
	SuiReserve       json.RawMessage `json:"sui_reserve"`
	SuiCutPercentage json.RawMessage `json:"sui_cut_percentage"`
}

// Move Option<T>. Older nodes render it as {vec: [...]}, the kiosk uses {some: ...}
type moveOption struct {
	Fields *struct {
		Some json.RawMessage   `json:"some"`
		Vec  []json.RawMessage `json:"vec"`
	} `json:"fields"`
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// Parses an unsigned integer encoded either as a JSON string or a JSON number
func parseInteger(name string, raw json.RawMessage) (out decimal.Decimal, err error) {
	if isNull(raw) {
		err = fmt.Errorf("%w: %s is missing", ErrMalformedSnapshot, name)
		return
	}

	raw = bytes.TrimSpace(raw)
	if raw[0] == '"' {
		var s string
		err = json.Unmarshal(raw, &s)
		if err != nil {
			err = fmt.Errorf("%w: %s: %s", ErrMalformedSnapshot, name, err)
			return
		}
		raw = []byte(s)
	}

	if len(raw) == 0 {
		err = fmt.Errorf("%w: %s is empty", ErrMalformedSnapshot, name)
		return
	}

	// Digits only, no sign, fraction or exponent
	for _, c := range raw {
		if c < '0' || c > '9' {
			err = fmt.Errorf("%w: %s is not an integer: %q", ErrMalformedSnapshot, name, string(raw))
			return
		}
	}

	return decimal.NewFromString(string(raw))
}

func parseSmallInteger(name string, raw json.RawMessage, max uint64) (out uint64, err error) {
	v, err := parseInteger(name, raw)
	if err != nil {
		return
	}
	if v.GreaterThan(decimal.NewFromInt(int64(max))) {
		err = fmt.Errorf("%w: %s out of range: %s", ErrMalformedSnapshot, name, v)
		return
	}
	return uint64(v.IntPart()), nil
}

func parseOption(name string, raw json.RawMessage) (out Option[decimal.Decimal], err error) {
	if isNull(raw) {
		return None[decimal.Decimal](), nil
	}

	raw = bytes.TrimSpace(raw)
	if raw[0] != '{' {
		// Plain value
		var v decimal.Decimal
		v, err = parseInteger(name, raw)
		if err != nil {
			return
		}
		return Some(v), nil
	}

	var option moveOption
	err = json.Unmarshal(raw, &option)
	if err != nil {
		err = fmt.Errorf("%w: %s: %s", ErrMalformedSnapshot, name, err)
		return
	}

	if option.Fields == nil {
		return None[decimal.Decimal](), nil
	}

	value := option.Fields.Some
	if isNull(value) && len(option.Fields.Vec) > 0 {
		value = option.Fields.Vec[0]
	}

	if isNull(value) {
		return None[decimal.Decimal](), nil
	}

	v, err := parseInteger(name, value)
	if err != nil {
		return
	}
	return Some(v), nil
}

// Converts raw marketplace fields into a snapshot.
// Circulating supply is total supply minus the reward pool and the liquidity vault. It isn't clamped and may be negative.
func NormalizeMarketplace(raw json.RawMessage) (out *Snapshot, err error) {
	if isNull(raw) {
		return nil, fmt.Errorf("%w: no fields", ErrMalformedSnapshot)
	}

	var fields marketplaceFields
	err = json.Unmarshal(raw, &fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, err)
	}

	totalSupply, err := parseInteger("treasury_cap.total_supply", fields.TreasuryCap.Fields.TotalSupply)
	if err != nil {
		return
	}

	rewardPool, err := parseInteger("reward_pool", fields.RewardPool)
	if err != nil {
		return
	}

	liquidityVault, err := parseInteger("liquidity_vault", fields.LiquidityVault)
	if err != nil {
		return
	}

	k := &fields.Kiosk.Fields
	out = new(Snapshot)

	out.CurrentPrice, err = parseInteger("kiosk.base_sonar_price", k.BaseSonarPrice)
	if err != nil {
		return nil, err
	}

	out.SonarBalance, err = parseInteger("kiosk.sonar_reserve", k.SonarReserve)
	if err != nil {
		return nil, err
	}

	out.SuiBalance, err = parseInteger("kiosk.sui_reserve", k.SuiReserve)
	if err != nil {
		return nil, err
	}

	tier, err := parseSmallInteger("kiosk.current_tier", k.CurrentTier, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	out.CurrentTier = int32(tier)

	out.PriceOverride, err = parseOption("kiosk.price_override", k.PriceOverride)
	if err != nil {
		return nil, err
	}

	// Not stored, informational
	if !isNull(k.SuiCutPercentage) {
		out.SuiCutPercentage, err = parseSmallInteger("kiosk.sui_cut_percentage", k.SuiCutPercentage, math.MaxUint32)
		if err != nil {
			return nil, err
		}
	}

	out.CirculatingSupply = totalSupply.Sub(rewardPool).Sub(liquidityVault)

	return
}
