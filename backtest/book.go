package backtest

import (
	"math"

	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/risk"
	"go.uber.org/zap"
)

// position is the single open position. The zero value means flat.
type position struct {
	open       bool
	dir        Direction
	entryPrice float64
	entryTime  int64
	entryIdx   int
	qty        float64 // always positive; dir carries the sign
	entryFee   float64
	stop       float64
	target     float64
	hasStop    bool
	hasTarget  bool
	barsHeld   int
	mfe        float64
	mae        float64
	risked     float64
}

// book is one run's cash, position and output. Nothing in it outlives the
// run that created it.
type book struct {
	cfg      Config
	gov      *risk.Governor
	log      *zap.Logger
	cash     float64
	pos      position
	trades   []Trade
	equity   []EquityPoint
	rejected []Rejection
}

func newBook(cfg Config, gov *risk.Governor, log *zap.Logger, n int) *book {
	return &book{
		cfg:    cfg,
		gov:    gov,
		log:    log,
		cash:   cfg.InitialBalance,
		equity: make([]EquityPoint, 0, n),
	}
}

// affordableQty is the largest quantity whose cost plus fee at price fits
// in cash. It returns 0 when nothing fits.
func affordableQty(cash, price, feeRate float64) float64 {
	if cash <= 0 || price <= 0 {
		return 0
	}
	qty := cash / (price * (1 + feeRate))
	for i := 0; i < maxSizingAttempts && outlay(qty, price, feeRate) > cash; i++ {
		qty *= 1 - SizingEpsilon
	}
	if qty <= 0 || outlay(qty, price, feeRate) > cash || !finite(qty) {
		return 0
	}
	return qty
}

func outlay(qty, price, feeRate float64) float64 {
	cost := qty * price
	return cost + cost*feeRate
}

// entryFill is the price paid to open dir at ref after slippage.
func (b *book) entryFill(ref float64, dir Direction) float64 {
	return ref * (1 + float64(dir)*b.cfg.SlippageRate)
}

// exitFill is the price received to close dir at ref after slippage.
func (b *book) exitFill(ref float64, dir Direction) float64 {
	return ref * (1 - float64(dir)*b.cfg.SlippageRate)
}

// entryRequest describes a proposed entry. A zero maxQty means no cap
// beyond what cash allows.
type entryRequest struct {
	dir       Direction
	fill      float64
	maxQty    float64
	stop      float64
	target    float64
	hasStop   bool
	hasTarget bool
}

// size returns the entry quantity for req, or 0 with a rejection recorded.
func (b *book) size(i int, bar market.Bar, req entryRequest) float64 {
	qty := affordableQty(b.cash, req.fill, b.cfg.FeeRate)
	if req.maxQty > 0 {
		qty = math.Min(qty, req.maxQty)
	}
	if b.gov != nil {
		if capQty := b.gov.MaxPositionNotional(b.markValue(bar.Close)) / req.fill; capQty > 0 {
			qty = math.Min(qty, capQty)
		}
	}
	if qty <= 0 {
		b.reject(i, bar, RejectSizing, "insufficient cash for a positive quantity")
		return 0
	}
	return qty
}

// open enters a position of qty at req.fill on bar i.
func (b *book) open(i int, bar market.Bar, req entryRequest, qty float64) {
	fee := qty * req.fill * b.cfg.FeeRate
	b.cash -= float64(req.dir)*qty*req.fill + fee

	risked := outlay(qty, req.fill, b.cfg.FeeRate)
	if req.hasStop {
		risked = risk.PlannedRisk(qty, req.fill, req.stop)
	}

	b.pos = position{
		open:       true,
		dir:        req.dir,
		entryPrice: req.fill,
		entryTime:  bar.Time,
		entryIdx:   i,
		qty:        qty,
		entryFee:   fee,
		stop:       req.stop,
		target:     req.target,
		hasStop:    req.hasStop,
		hasTarget:  req.hasTarget,
		risked:     risked,
	}
	if b.gov != nil {
		b.gov.UpdatePositionCount(1)
	}
	b.log.Debug("open position",
		zap.Int("bar", i),
		zap.Stringer("direction", req.dir),
		zap.Float64("price", req.fill),
		zap.Float64("qty", qty),
		zap.Float64("cash", b.cash))
}

// close exits the open position at fill on bar i.
func (b *book) close(i int, bar market.Bar, fill float64, reason ExitReason) {
	p := b.pos
	fee := p.qty * fill * b.cfg.FeeRate
	b.cash += float64(p.dir)*p.qty*fill - fee

	pnl := float64(p.dir)*(fill-p.entryPrice)*p.qty - (p.entryFee + fee)
	r := 0.0
	if p.risked > 0 {
		r = pnl / p.risked
	}

	t := Trade{
		EntryTime:  p.entryTime,
		ExitTime:   bar.Time,
		EntryIndex: p.entryIdx,
		ExitIndex:  i,
		Direction:  p.dir.String(),
		EntryPrice: p.entryPrice,
		ExitPrice:  fill,
		Quantity:   p.qty,
		EntryFee:   p.entryFee,
		ExitFee:    fee,
		PnL:        pnl,
		R:          r,
		Risked:     p.risked,
		MFE:        p.mfe,
		MAE:        p.mae,
		BarsHeld:   i - p.entryIdx,
		Reason:     reason,
	}
	if p.hasStop {
		t.Stop = p.stop
	}
	if p.hasTarget {
		t.Target = p.target
	}
	if p.hasStop && p.hasTarget {
		t.PlannedRR = risk.RR(p.entryPrice, p.stop, p.target)
	}
	b.trades = append(b.trades, t)
	b.pos = position{}

	if b.gov != nil {
		b.gov.UpdatePositionCount(-1)
	}
	b.log.Debug("close position",
		zap.Int("bar", i),
		zap.String("reason", string(reason)),
		zap.Float64("price", fill),
		zap.Float64("pnl", pnl),
		zap.Float64("cash", b.cash))
}

// track updates excursions with bar i's range. The entry bar is skipped.
func (b *book) track(i int, bar market.Bar) {
	p := &b.pos
	if !p.open || i <= p.entryIdx {
		return
	}
	p.barsHeld = i - p.entryIdx
	up := bar.High - p.entryPrice
	down := p.entryPrice - bar.Low
	fav, adv := up, down
	if p.dir == Short {
		fav, adv = down, up
	}
	p.mfe = math.Max(p.mfe, fav)
	p.mae = math.Max(p.mae, adv)
}

// markValue is cash plus the signed position value at price.
func (b *book) markValue(price float64) float64 {
	if !b.pos.open {
		return b.cash
	}
	return b.cash + float64(b.pos.dir)*b.pos.qty*price
}

// mark appends the equity sample for bar and feeds it to the governor.
func (b *book) mark(bar market.Bar) {
	eq := b.markValue(bar.Close)
	b.equity = append(b.equity, EquityPoint{Time: bar.Time, Equity: eq})
	if b.gov != nil {
		b.gov.UpdateCapitalAt(bar.T(), eq)
	}
}

// finish force-closes any open position at the last close and replaces the
// last equity sample with realized cash. The fill takes exit slippage and
// the exit fee like any other close.
func (b *book) finish(bars []market.Bar) {
	last := len(bars) - 1
	if b.pos.open {
		bar := bars[last]
		b.close(last, bar, b.exitFill(bar.Close, b.pos.dir), ExitEndOfSeries)
		b.equity[last].Equity = b.cash
		if b.gov != nil {
			b.gov.UpdateCapitalAt(bar.T(), b.cash)
		}
	}
}

// allowed asks the governor, when attached, whether an entry may proceed.
func (b *book) allowed(i int, bar market.Bar) bool {
	if b.gov == nil {
		return true
	}
	d := b.gov.CheckCanOpenPosition()
	if !d.Allowed {
		b.reject(i, bar, d.Code(), d.Reason())
	}
	return d.Allowed
}

func (b *book) reject(i int, bar market.Bar, code, reason string) {
	b.rejected = append(b.rejected, Rejection{Time: bar.Time, Index: i, Code: code, Reason: reason})
	b.log.Debug("entry rejected", zap.Int("bar", i), zap.String("code", code), zap.String("reason", reason))
}

func (b *book) result() Result {
	return Result{
		Trades:       b.trades,
		EquityCurve:  b.equity,
		Summary:      summarize(b.trades, b.cfg.InitialBalance),
		FinalBalance: b.cash,
		Rejections:   b.rejected,
	}
}
