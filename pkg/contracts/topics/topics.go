package topics

const (
	// Odds
	OddsUpdates = "odds_updates"

	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"
)

// Canais Redis Pub/Sub
const (
	// ChannelBetSettled recebe as liquidações repassadas pelo settlement-notifier
	ChannelBetSettled = "bet_settled_broadcast"
)

// Prefixos de chave no Redis compartilhados entre serviços
const (
	KeyGameOdds     = "odds:game:"      // odds:game:{gameId} -> events.GameOdds
	KeySportOdds    = "odds:sport:"     // odds:sport:{sport} -> []events.GameOdds
	KeyOddsUpdated  = "odds:last_update"
	KeyScoreboard   = "espn:scoreboard:" // espn:scoreboard:{sport} -> corpo bruto do placar
	KeyResolverLock = "lock:bet-resolver"
)
