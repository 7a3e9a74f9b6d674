package items

import (
	"errors"
	"testing"
)

func TestWalletPay(t *testing.T) {
	base := Wallet{Gold: 500}
	base.Inventory[ItemEnhancementStone] = 2
	base.Inventory[ItemPowerCrystal] = 1

	cases := []struct {
		name     string
		gold     int
		consumed []ItemID
		wantErr  bool
		wantGold int
	}{
		{"gold only", 200, nil, false, 300},
		{"gold and items", 100, []ItemID{ItemEnhancementStone, ItemPowerCrystal}, false, 400},
		{"duplicate items counted", 0, []ItemID{ItemEnhancementStone, ItemEnhancementStone}, false, 500},
		{"too much gold", 501, nil, true, 500},
		{"missing item", 10, []ItemID{ItemMysticOrb}, true, 500},
		{"not enough copies", 0, []ItemID{ItemPowerCrystal, ItemPowerCrystal}, true, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := base
			err := w.Pay(tc.gold, tc.consumed)
			if tc.wantErr {
				if !errors.Is(err, ErrCannotAfford) {
					t.Fatalf("expected ErrCannotAfford, got %v", err)
				}
				if w != base {
					t.Fatalf("failed payment changed the wallet: %+v", w)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Gold != tc.wantGold {
				t.Errorf("gold = %d, want %d", w.Gold, tc.wantGold)
			}
			for _, id := range tc.consumed {
				if w.Inventory[id] >= base.Inventory[id] {
					t.Errorf("%s not debited", id)
				}
			}
		})
	}
}

func TestWalletGrant(t *testing.T) {
	var w Wallet
	var inv Inventory
	inv[ItemWorldLeaf] = 2
	inv[ItemSpiritBell] = -3
	w.Grant(100, inv)
	w.Grant(-50, Inventory{})
	if w.Gold != 100 || w.Inventory[ItemWorldLeaf] != 2 || w.Inventory[ItemSpiritBell] != 0 {
		t.Fatalf("wallet = %+v", w)
	}
}
