package network_test

import (
	"fmt"

	"github.com/katalvlaran/straindesign/network"
)

// ExampleParseConstraint shows the accepted constraint syntax.
func ExampleParseConstraint() {
	c, err := network.ParseConstraint("EX_sucr_e - 1 BIOMASS__1 <= 0")
	if err != nil {
		panic(err)
	}
	fmt.Println(c)
	// Output: -BIOMASS__1 + EX_sucr_e <= 0
}
