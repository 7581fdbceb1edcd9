package contract

import (
	"testing"
)

func TestSaleABI(t *testing.T) {
	t.Run("purchase entrypoints", func(t *testing.T) {
		buyNative, ok := saleABI.Methods["buyWithNative"]
		if !ok {
			t.Fatal("buyWithNative missing")
		}
		if !buyNative.IsPayable() {
			t.Error("buyWithNative must be payable")
		}
		for _, name := range []string{"buyWithUSDT", "buyWithUSDC"} {
			m, ok := saleABI.Methods[name]
			if !ok {
				t.Fatalf("%s missing", name)
			}
			if m.IsPayable() {
				t.Errorf("%s must not be payable", name)
			}
			if len(m.Inputs) != 1 || m.Inputs[0].Type.String() != "uint256" {
				t.Errorf("%s should take a single uint256", name)
			}
		}
	})

	t.Run("quote surface", func(t *testing.T) {
		cost, ok := saleABI.Methods["calculateCostAcrossStages"]
		if !ok {
			t.Fatal("calculateCostAcrossStages missing")
		}
		if len(cost.Outputs) != 2 || cost.Outputs[1].Type.String() != "bool" {
			t.Error("calculateCostAcrossStages should return (uint256, bool)")
		}
		if _, ok := saleABI.Methods["usdToNative"]; !ok {
			t.Error("usdToNative missing")
		}
	})

	t.Run("stage getters", func(t *testing.T) {
		current, ok := saleABI.Methods["getCurrentStage"]
		if !ok {
			t.Fatal("getCurrentStage missing")
		}
		if len(current.Outputs) != 5 {
			t.Errorf("getCurrentStage returns %d values, want 5", len(current.Outputs))
		}
		stage, ok := saleABI.Methods["getStage"]
		if !ok {
			t.Fatal("getStage missing")
		}
		if len(stage.Outputs) != 4 {
			t.Errorf("getStage returns %d values, want 4", len(stage.Outputs))
		}
	})

	t.Run("admin surface", func(t *testing.T) {
		for _, name := range []string{
			"startSale", "stopSale", "pause", "unpause",
			"setTokenPriceUsd6", "setMaxPerWallet", "setTgeTimestamp",
			"setPriceStalenessTolerance", "fundRCX", "initializeStages",
			"withdrawProceeds", "recoverTokens", "owner",
		} {
			if _, ok := saleABI.Methods[name]; !ok {
				t.Errorf("%s missing", name)
			}
		}
	})

	t.Run("purchase event", func(t *testing.T) {
		ev, ok := saleABI.Events["Purchased"]
		if !ok {
			t.Fatal("Purchased event missing")
		}
		if !ev.Inputs[0].Indexed {
			t.Error("buyer should be indexed")
		}
	})
}

func TestTokenABI(t *testing.T) {
	for _, name := range []string{"balanceOf", "allowance", "approve", "decimals", "symbol"} {
		if _, ok := tokenABI.Methods[name]; !ok {
			t.Errorf("%s missing from ERC-20 ABI", name)
		}
	}
}

func TestChainlinkABI(t *testing.T) {
	round, ok := feedABI.Methods["latestRoundData"]
	if !ok {
		t.Fatal("latestRoundData missing")
	}
	if len(round.Outputs) != 5 {
		t.Errorf("latestRoundData returns %d values, want 5", len(round.Outputs))
	}
	if round.Outputs[1].Type.String() != "int256" {
		t.Errorf("answer type = %s, want int256", round.Outputs[1].Type)
	}
}
