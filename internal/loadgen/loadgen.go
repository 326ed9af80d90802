// Package loadgen produces synthetic gateway traffic. It mimics what a
// fleet of gateways publishes: periodic alive reports, batches of beacon
// advertisements, the occasional unknown beacon type, control-byte
// padding and corrupted frames.
package loadgen

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"validator-bench/internal/models"
)

// Scenario builds one kind of payload.
type Scenario struct {
	Name   string
	Weight int // relative frequency; zero means one
	Build  func(r *rand.Rand, gmac string) (topic string, payload []byte)
}

// DefaultScenarios is the traffic mix used when none is given.
var DefaultScenarios = []Scenario{
	{Name: "alive", Weight: 2, Build: buildAlive},
	{Name: "advData", Weight: 6, Build: buildAdvData},
	{Name: "advData-unknown-type", Weight: 1, Build: buildAdvDataUnknown},
	{Name: "alive-padded", Weight: 1, Build: buildPadded},
	{Name: "malformed", Weight: 1, Build: buildMalformed},
}

// Generator cycles through scenarios over a fixed set of gateways.
// It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	schedule []Scenario
	next     int
	gateways []string
}

// New returns a generator seeded with seed over n gateways. With no
// scenarios, DefaultScenarios is used.
func New(seed uint64, gateways int, scenarios ...Scenario) *Generator {
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios
	}
	if gateways <= 0 {
		gateways = 1
	}

	var schedule []Scenario
	for _, s := range scenarios {
		w := s.Weight
		if w <= 0 {
			w = 1
		}
		for i := 0; i < w; i++ {
			schedule = append(schedule, s)
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(schedule), func(i, j int) { schedule[i], schedule[j] = schedule[j], schedule[i] })

	gws := make([]string, gateways)
	for i := range gws {
		gws[i] = fmt.Sprintf("AC233F%06X", 0xC0A100+i)
	}

	return &Generator{rng: rng, schedule: schedule, gateways: gws}
}

// Gateways returns the simulated gateway MACs.
func (g *Generator) Gateways() []string {
	return append([]string(nil), g.gateways...)
}

// Next returns the next payload and the topic it would be published on.
func (g *Generator) Next() (string, []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.schedule[g.next%len(g.schedule)]
	gmac := g.gateways[g.next%len(g.gateways)]
	g.next++
	return s.Build(g.rng, gmac)
}

// NextFor returns the next payload for a specific gateway.
func (g *Generator) NextFor(gmac string) (string, []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.schedule[g.next%len(g.schedule)]
	g.next++
	return s.Build(g.rng, gmac)
}

// Only returns the named scenarios from DefaultScenarios.
func Only(names ...string) ([]Scenario, error) {
	var out []Scenario
	for _, n := range names {
		found := false
		for _, s := range DefaultScenarios {
			if s.Name == n {
				out = append(out, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown scenario %q", n)
		}
	}
	return out, nil
}

func statusTopic(gmac string) string { return "gw/" + gmac + "/status" }
func advTopic(gmac string) string    { return "gw/" + gmac + "/adv" }

// Alive returns a health report for gmac.
func Alive(r *rand.Rand, gmac string) models.GatewayAlive {
	return models.GatewayAlive{
		Msg:         models.MsgAlive,
		GMAC:        gmac,
		Ver:         "1.5.2",
		SubAction:   "/gw/" + gmac + "/action",
		PubAction:   statusTopic(gmac),
		DownDevices: float64(r.IntN(40)),
		BLEVer:      "1.0.4",
		WanIP:       fmt.Sprintf("10.0.%d.%d", r.IntN(255), 1+r.IntN(254)),
		HVer:        "G1-A",
		Model:       "MG3",
		Temp:        30 + r.Float64()*20,
		Load:        r.Float64(),
		MemFree:     float64(16384 + r.IntN(16384)),
		UTC:         float64(time.Now().Unix()),
		Uptime:      float64(r.IntN(1_000_000)),
		State:       1,
	}
}

// Record returns a random beacon record of the given type. Unknown types
// get a minimal record.
func Record(r *rand.Rand, typ int) any {
	dmac := fmt.Sprintf("D0%010X", r.Uint64()&0xFFFFFFFFFF)
	ts := time.Now().UTC().Format("2006-01-02 15:04:05")
	rssi := float64(-40 - r.IntN(60))

	switch typ {
	case models.BeaconTypeAdv1:
		return models.ButtonAdv1{
			Type: models.RecordType(typ), DMAC: dmac, Time: ts, RSSI: rssi, Ver: 1,
			VBatt: float64(2800 + r.IntN(400)), Temp: 15 + r.Float64()*15,
			Humidity: 30 + r.Float64()*40, Z0: 1, NewTHCnt: float64(r.IntN(100)),
		}
	case models.BeaconTypeAdv4:
		return models.ButtonAdv4{
			Type: models.RecordType(typ), DMAC: dmac, UUID: "fda50693a4e24fb1afcfc6eb07647825",
			MajorID: float64(r.IntN(65535)), MinorID: float64(r.IntN(65535)),
			RefPower: -59, RSSI: rssi, Time: ts,
		}
	case models.BeaconTypeAdv8:
		return models.ButtonAdv8{
			Type: models.RecordType(typ), DMAC: dmac, VBatt: float64(2800 + r.IntN(400)), Temp: 15 + r.Float64()*15,
			AdvCnt: float64(r.IntN(1 << 16)), SecCnt: float64(r.IntN(1 << 20)), RSSI: rssi, Time: ts,
		}
	default:
		return map[string]any{"type": typ, "dmac": dmac, "rssi": rssi, "time": ts}
	}
}

// AdvData assembles records into an advData message.
func AdvData(gmac string, records ...any) ([]byte, error) {
	obj := make([]json.RawMessage, len(records))
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		obj[i] = b
	}
	return json.Marshal(models.GatewayAdvData{Msg: models.MsgAdvData, GMAC: gmac, Obj: obj})
}

var knownTypes = []int{models.BeaconTypeAdv1, models.BeaconTypeAdv4, models.BeaconTypeAdv8}

func buildAlive(r *rand.Rand, gmac string) (string, []byte) {
	b, _ := json.Marshal(Alive(r, gmac))
	return statusTopic(gmac), b
}

func buildAdvData(r *rand.Rand, gmac string) (string, []byte) {
	n := 1 + r.IntN(8)
	records := make([]any, n)
	for i := range records {
		records[i] = Record(r, knownTypes[r.IntN(len(knownTypes))])
	}
	b, _ := AdvData(gmac, records...)
	return advTopic(gmac), b
}

func buildAdvDataUnknown(r *rand.Rand, gmac string) (string, []byte) {
	b, _ := AdvData(gmac,
		Record(r, models.BeaconTypeAdv1),
		Record(r, 2+r.IntN(2)),
		Record(r, models.BeaconTypeAdv8),
	)
	return advTopic(gmac), b
}

func buildPadded(r *rand.Rand, gmac string) (string, []byte) {
	topic, b := buildAlive(r, gmac)
	out := make([]byte, 0, len(b)+4)
	out = append(out, 0x00, 0x00)
	out = append(out, b...)
	out = append(out, '\r', '\n')
	return topic, out
}

func buildMalformed(r *rand.Rand, gmac string) (string, []byte) {
	topic, b := buildAlive(r, gmac)
	return topic, b[:len(b)/2]
}
