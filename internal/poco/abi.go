package poco

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Hand-maintained ABI fragments: only the events and views this service
// consumes. Keeping them inline avoids regenerating full bindings every time
// the hub adds surface we do not care about.

const hubABIJSON = `[
	{"type":"event","name":"OrdersMatched","inputs":[
		{"name":"dealid","type":"bytes32","indexed":false},
		{"name":"appHash","type":"bytes32","indexed":false},
		{"name":"datasetHash","type":"bytes32","indexed":false},
		{"name":"workerpoolHash","type":"bytes32","indexed":false},
		{"name":"requestHash","type":"bytes32","indexed":false},
		{"name":"volume","type":"uint256","indexed":false}]},
	{"type":"event","name":"ClosedAppOrder","inputs":[
		{"name":"appHash","type":"bytes32","indexed":false}]},
	{"type":"event","name":"ClosedDatasetOrder","inputs":[
		{"name":"datasetHash","type":"bytes32","indexed":false}]},
	{"type":"event","name":"ClosedWorkerpoolOrder","inputs":[
		{"name":"workerpoolHash","type":"bytes32","indexed":false}]},
	{"type":"event","name":"ClosedRequestOrder","inputs":[
		{"name":"requestHash","type":"bytes32","indexed":false}]},
	{"type":"event","name":"CreateCategory","inputs":[
		{"name":"catid","type":"uint256","indexed":false}]},
	{"type":"function","name":"viewConsumed","stateMutability":"view","inputs":[
		{"name":"_id","type":"bytes32"}],"outputs":[
		{"name":"consumed","type":"uint256"}]},
	{"type":"function","name":"viewAccount","stateMutability":"view","inputs":[
		{"name":"_owner","type":"address"}],"outputs":[
		{"name":"stake","type":"uint256"},
		{"name":"locked","type":"uint256"}]},
	{"type":"function","name":"viewCategory","stateMutability":"view","inputs":[
		{"name":"_catid","type":"uint256"}],"outputs":[
		{"name":"name","type":"string"},
		{"name":"description","type":"string"},
		{"name":"workClockTimeRef","type":"uint256"}]}
]`

const registryABIJSON = `[
	{"type":"event","name":"Transfer","inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"tokenId","type":"uint256","indexed":true}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[
		{"name":"tokenId","type":"uint256"}],"outputs":[
		{"name":"owner","type":"address"}]}
]`

const tokenABIJSON = `[
	{"type":"event","name":"Transfer","inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"RoleRevoked","inputs":[
		{"name":"role","type":"bytes32","indexed":true},
		{"name":"account","type":"address","indexed":true},
		{"name":"sender","type":"address","indexed":true}]},
	{"type":"function","name":"isKYC","stateMutability":"view","inputs":[
		{"name":"account","type":"address"}],"outputs":[
		{"name":"","type":"bool"}]}
]`

var (
	HubABI      = mustABI(hubABIJSON)
	RegistryABI = mustABI(registryABIJSON)
	TokenABI    = mustABI(tokenABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
