package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const boardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Shoewatch</title>
    <meta name="description" content="Baccarat shoe pattern analysis">
    <link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>◆</text></svg>">
    <link rel="preconnect" href="https://fonts.googleapis.com">
    <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
    <link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600&family=JetBrains+Mono:wght@400;500&display=swap" rel="stylesheet">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --text-tertiary: #52525b;
            --player: #3b82f6;
            --banker: #ef4444;
            --tie: #f59e0b;
            --tier-low: #22c55e;
            --tier-medium: #f59e0b;
            --tier-high: #f97316;
            --tier-critical: #ef4444;
        }

        body {
            font-family: 'Inter', -apple-system, sans-serif;
            background: var(--bg);
            color: var(--text);
            min-height: 100vh;
            font-size: 14px;
            line-height: 1.5;
            -webkit-font-smoothing: antialiased;
        }

        .mono {
            font-family: 'JetBrains Mono', monospace;
        }

        .container {
            max-width: 1100px;
            margin: 0 auto;
            padding: 0 24px;
        }

        /* Header */
        header {
            border-bottom: 1px solid var(--border);
            padding: 16px 0;
            position: sticky;
            top: 0;
            background: var(--bg);
            z-index: 100;
        }

        .header-inner {
            display: flex;
            justify-content: space-between;
            align-items: center;
        }

        .logo {
            display: flex;
            align-items: center;
            gap: 10px;
            font-weight: 600;
            font-size: 15px;
        }

        .logo-mark {
            color: var(--banker);
        }

        .session-id {
            color: var(--text-tertiary);
            font-size: 12px;
        }

        .live-indicator {
            display: flex;
            align-items: center;
            gap: 6px;
            font-size: 12px;
            color: var(--text-tertiary);
        }

        .live-dot {
            width: 6px;
            height: 6px;
            background: var(--text-tertiary);
            border-radius: 50%;
        }

        .live-dot.connected {
            background: var(--tier-low);
            animation: pulse 2s ease-in-out infinite;
        }

        @keyframes pulse {
            0%, 100% { opacity: 1; }
            50% { opacity: 0.4; }
        }

        /* Record controls */
        .controls {
            display: flex;
            align-items: center;
            gap: 12px;
            padding: 24px 0 16px;
            flex-wrap: wrap;
        }

        .btn {
            border: none;
            border-radius: 6px;
            padding: 14px 28px;
            font-family: inherit;
            font-size: 15px;
            font-weight: 600;
            color: #fff;
            cursor: pointer;
            transition: opacity 0.15s, transform 0.05s;
        }

        .btn:hover { opacity: 0.85; }
        .btn:active { transform: scale(0.97); }

        .btn.player { background: var(--player); }
        .btn.banker { background: var(--banker); }
        .btn.tie { background: var(--tie); color: #1c1917; }

        .btn.ghost {
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            color: var(--text-secondary);
            font-weight: 500;
            padding: 13px 20px;
        }

        .btn.ghost:hover { color: var(--text); }
        .btn.ghost.danger:hover { color: var(--banker); border-color: var(--banker); }

        .controls .spacer { flex: 1; }

        .key-hint {
            color: var(--text-tertiary);
            font-size: 12px;
        }

        /* Status toast */
        .status {
            min-height: 20px;
            font-size: 13px;
            color: var(--tie);
            padding-bottom: 4px;
            opacity: 0;
            transition: opacity 0.2s;
        }

        .status.visible { opacity: 1; }

        /* Outcome strip */
        .shoe {
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 24px;
        }

        .section-title {
            font-size: 12px;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--text-tertiary);
            margin-bottom: 14px;
        }

        .strip {
            display: flex;
            flex-wrap: wrap;
            gap: 6px;
            min-height: 36px;
        }

        .square {
            width: 36px;
            height: 36px;
            border-radius: 6px;
            display: flex;
            align-items: center;
            justify-content: center;
            font-family: 'JetBrains Mono', monospace;
            font-weight: 500;
            font-size: 15px;
            color: #fff;
        }

        .square.player { background: var(--player); }
        .square.banker { background: var(--banker); }
        .square.tie { background: var(--tie); color: #1c1917; }

        .square.latest {
            outline: 2px solid var(--text);
            outline-offset: 1px;
        }

        .tally {
            margin-top: 14px;
            display: flex;
            gap: 20px;
            font-size: 13px;
            color: var(--text-secondary);
        }

        .tally .dot {
            display: inline-block;
            width: 8px;
            height: 8px;
            border-radius: 2px;
            margin-right: 6px;
        }

        /* Report panels */
        .grid {
            display: grid;
            grid-template-columns: 1fr 1fr;
            gap: 16px;
            padding-bottom: 48px;
        }

        .panel {
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 20px;
        }

        .empty {
            color: var(--text-tertiary);
            font-size: 13px;
            padding: 8px 0;
        }

        /* Patterns */
        .pattern {
            padding: 10px 0;
            border-bottom: 1px solid var(--border);
        }

        .pattern:last-child { border-bottom: none; }

        .pattern-head {
            display: flex;
            align-items: center;
            gap: 8px;
            margin-bottom: 4px;
        }

        .tier-badge {
            font-size: 11px;
            font-weight: 600;
            text-transform: uppercase;
            letter-spacing: 0.04em;
            padding: 2px 8px;
            border-radius: 4px;
            background: var(--bg-subtle);
        }

        .tier-badge.low { color: var(--tier-low); }
        .tier-badge.medium { color: var(--tier-medium); }
        .tier-badge.high { color: var(--tier-high); }
        .tier-badge.critical { color: var(--tier-critical); }

        .pattern-desc { font-size: 13px; }

        .pattern-note {
            font-size: 12px;
            color: var(--text-tertiary);
            margin-top: 2px;
        }

        /* Risk / manipulation score */
        .score-row {
            display: flex;
            align-items: baseline;
            gap: 12px;
            margin-bottom: 12px;
        }

        .score-value {
            font-size: 42px;
            font-weight: 600;
            line-height: 1;
        }

        .score-value.low { color: var(--tier-low); }
        .score-value.medium { color: var(--tier-medium); }
        .score-value.high { color: var(--tier-high); }
        .score-value.critical { color: var(--tier-critical); }

        .score-level {
            font-size: 13px;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--text-secondary);
        }

        .factor-list {
            list-style: none;
            font-size: 13px;
            color: var(--text-secondary);
        }

        .factor-list li {
            padding: 4px 0;
            border-bottom: 1px solid var(--border);
        }

        .factor-list li:last-child { border-bottom: none; }

        /* Prediction */
        .prediction-main {
            display: flex;
            align-items: center;
            gap: 12px;
            margin-bottom: 12px;
        }

        .color-chip {
            padding: 8px 18px;
            border-radius: 6px;
            font-weight: 600;
            font-size: 15px;
            color: #fff;
        }

        .color-chip.player { background: var(--player); }
        .color-chip.banker { background: var(--banker); }
        .color-chip.tie { background: var(--tie); color: #1c1917; }
        .color-chip.none { background: var(--bg-subtle); color: var(--text-tertiary); }

        .confidence {
            font-size: 24px;
            font-weight: 600;
        }

        .strategy {
            font-size: 13px;
            font-weight: 600;
            letter-spacing: 0.04em;
            margin-bottom: 6px;
        }

        .reasoning {
            font-size: 13px;
            color: var(--text-secondary);
        }

        @media (max-width: 720px) {
            .grid { grid-template-columns: 1fr; }
            .hero-value { font-size: 40px; }
        }
    </style>
</head>
<body>
    <header>
        <div class="container header-inner">
            <div class="logo"><span class="logo-mark">◆</span> Shoewatch</div>
            <div class="live-indicator">
                <span class="session-id mono" id="session-label"></span>
                <span class="live-dot" id="live-dot"></span>
                <span id="live-text">connecting</span>
            </div>
        </div>
    </header>

    <main class="container">
        <div class="controls">
            <button class="btn player" onclick="record('player')">Player</button>
            <button class="btn banker" onclick="record('banker')">Banker</button>
            <button class="btn tie" onclick="record('tie')">Tie</button>
            <div class="spacer"></div>
            <span class="key-hint">keys: P / B / T · backspace undoes</span>
            <button class="btn ghost" onclick="undoLast()">Undo</button>
            <button class="btn ghost danger" onclick="clearShoe()">Clear</button>
        </div>

        <div class="status" id="status"></div>

        <div class="shoe">
            <div class="section-title">Shoe · newest first</div>
            <div class="strip" id="strip"><div class="empty">No rounds recorded yet</div></div>
            <div class="tally" id="tally"></div>
        </div>

        <div class="grid">
            <section class="panel">
                <div class="section-title">Detected Patterns</div>
                <div id="patterns"><div class="empty">Waiting for rounds</div></div>
            </section>
            <section class="panel">
                <div class="section-title">Risk</div>
                <div id="risk"><div class="empty">Waiting for rounds</div></div>
            </section>
            <section class="panel">
                <div class="section-title">Manipulation</div>
                <div id="manipulation"><div class="empty">Waiting for rounds</div></div>
            </section>
            <section class="panel">
                <div class="section-title">Prediction</div>
                <div id="prediction"><div class="empty">Waiting for rounds</div></div>
            </section>
        </div>
    </main>

    <script>
        // Escape HTML to prevent XSS
        function escapeHtml(text) {
            if (text == null) return '';
            const div = document.createElement('div');
            div.textContent = String(text);
            return div.innerHTML;
        }

        // Safe fetch that returns null on error
        async function safeFetch(url, opts) {
            try {
                const r = await fetch(url, opts);
                if (!r.ok) return null;
                return await r.json();
            } catch (e) {
                return null;
            }
        }

        const LETTERS = { player: 'P', banker: 'B', tie: 'T' };

        let sessionId = localStorage.getItem('shoewatch.sessionId') || '';
        let ws = null;

        function flash(msg) {
            const el = document.getElementById('status');
            el.textContent = msg;
            el.classList.add('visible');
            setTimeout(function() { el.classList.remove('visible'); }, 2500);
        }

        function setLive(connected) {
            const dot = document.getElementById('live-dot');
            const text = document.getElementById('live-text');
            if (connected) {
                dot.classList.add('connected');
                text.textContent = 'live';
            } else {
                dot.classList.remove('connected');
                text.textContent = 'offline';
            }
        }

        // Create or re-use the board's tracked session
        async function ensureSession() {
            if (sessionId) {
                const res = await safeFetch('/v1/sessions/' + encodeURIComponent(sessionId));
                if (res && res.session) return;
            }
            const created = await safeFetch('/v1/sessions', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ label: 'board' })
            });
            if (created && created.session) {
                sessionId = created.session.id;
                localStorage.setItem('shoewatch.sessionId', sessionId);
            } else {
                flash('Could not start a session');
            }
        }

        function renderStrip(outcomes) {
            const strip = document.getElementById('strip');
            const tally = document.getElementById('tally');

            if (!outcomes || outcomes.length === 0) {
                strip.innerHTML = '<div class="empty">No rounds recorded yet</div>';
                tally.innerHTML = '';
                return;
            }

            // Newest on the left
            const newestFirst = outcomes.slice().reverse();
            strip.innerHTML = newestFirst.map(function(o, i) {
                return '<div class="square ' + escapeHtml(o) + (i === 0 ? ' latest' : '') + '">' + (LETTERS[o] || '?') + '</div>';
            }).join('');

            let p = 0, b = 0, t = 0;
            outcomes.forEach(function(o) {
                if (o === 'player') p++;
                else if (o === 'banker') b++;
                else if (o === 'tie') t++;
            });
            tally.innerHTML =
                '<span>' + outcomes.length + ' rounds</span>' +
                '<span><span class="dot" style="background:var(--player)"></span>Player ' + p + '</span>' +
                '<span><span class="dot" style="background:var(--banker)"></span>Banker ' + b + '</span>' +
                '<span><span class="dot" style="background:var(--tie)"></span>Tie ' + t + '</span>';
        }

        function tierBadge(tier) {
            return '<span class="tier-badge ' + escapeHtml(tier) + '">' + escapeHtml(tier) + '</span>';
        }

        function renderPatterns(patterns) {
            const el = document.getElementById('patterns');
            if (!patterns || patterns.length === 0) {
                el.innerHTML = '<div class="empty">No suspicious patterns detected</div>';
                return;
            }
            el.innerHTML = patterns.map(function(pt) {
                return '<div class="pattern">' +
                    '<div class="pattern-head">' + tierBadge(pt.tier) + '</div>' +
                    '<div class="pattern-desc">' + escapeHtml(pt.description) + '</div>' +
                    (pt.manipulationNote ? '<div class="pattern-note">' + escapeHtml(pt.manipulationNote) + '</div>' : '') +
                '</div>';
            }).join('');
        }

        function renderScore(elID, level, score, items, emptyMsg) {
            const el = document.getElementById(elID);
            let html = '<div class="score-row">' +
                '<span class="score-value ' + escapeHtml(level) + '">' + score + '</span>' +
                '<span class="score-level">' + escapeHtml(level) + '</span>' +
            '</div>';
            if (items && items.length > 0) {
                html += '<ul class="factor-list">' + items.map(function(f) {
                    return '<li>' + escapeHtml(f) + '</li>';
                }).join('') + '</ul>';
            } else {
                html += '<div class="empty">' + emptyMsg + '</div>';
            }
            el.innerHTML = html;
        }

        function renderPrediction(pred) {
            const el = document.getElementById('prediction');
            if (!pred) {
                el.innerHTML = '<div class="empty">Waiting for rounds</div>';
                return;
            }
            let chip;
            if (pred.color) {
                chip = '<span class="color-chip ' + escapeHtml(pred.color) + '">' + escapeHtml(pred.color.toUpperCase()) + '</span>';
            } else {
                chip = '<span class="color-chip none">NO BET</span>';
            }
            let html = '<div class="strategy">' + escapeHtml(pred.strategy) + '</div>';
            html += '<div class="prediction-main">' + chip;
            if (pred.confidence > 0) {
                html += '<span class="confidence mono">' + pred.confidence.toFixed(0) + '%</span>';
            }
            html += '</div>';
            if (pred.reasoning) {
                html += '<div class="reasoning">' + escapeHtml(pred.reasoning) + '</div>';
            }
            el.innerHTML = html;
        }

        function render(snap) {
            if (!snap || !snap.session) return;
            renderStrip(snap.session.outcomes);
            const a = snap.analysis;
            if (!a) return;
            renderPatterns(a.patterns);
            renderScore('risk', a.risk.level, a.risk.score, a.risk.factors, 'No risk factors');
            renderScore('manipulation', a.manipulation.level, a.manipulation.score, a.manipulation.signs, 'No manipulation signs');
            renderPrediction(a.prediction);
            document.getElementById('session-label').textContent = snap.session.id;
        }

        async function refresh() {
            const snap = await safeFetch('/v1/sessions/' + encodeURIComponent(sessionId) + '/analysis');
            if (snap) {
                render(snap);
            } else {
                // Session may have been deleted elsewhere; start over
                localStorage.removeItem('shoewatch.sessionId');
                sessionId = '';
                await ensureSession();
                if (sessionId) {
                    const again = await safeFetch('/v1/sessions/' + encodeURIComponent(sessionId) + '/analysis');
                    if (again) render(again);
                }
            }
        }

        async function record(outcomeName) {
            if (!sessionId) await ensureSession();
            const snap = await safeFetch('/v1/sessions/' + encodeURIComponent(sessionId) + '/outcomes', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ outcome: outcomeName })
            });
            if (snap) {
                render(snap);
            } else {
                flash('Could not record outcome (shoe may be full)');
            }
        }

        async function undoLast() {
            const snap = await safeFetch('/v1/sessions/' + encodeURIComponent(sessionId) + '/outcomes/last', { method: 'DELETE' });
            if (snap) render(snap);
        }

        async function clearShoe() {
            const snap = await safeFetch('/v1/sessions/' + encodeURIComponent(sessionId) + '/outcomes', { method: 'DELETE' });
            if (snap) render(snap);
        }

        // Live updates keep other tabs watching the same shoe in sync
        function connectWS() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(proto + location.host + '/ws');

            ws.onopen = function() {
                setLive(true);
                ws.send(JSON.stringify({ sessionIds: [sessionId] }));
            };

            ws.onmessage = function(msg) {
                let event;
                try {
                    event = JSON.parse(msg.data);
                } catch (e) {
                    return;
                }
                if (!event.data || event.data.sessionId !== sessionId) return;
                if (event.type === 'analysis' || event.type === 'session_cleared') {
                    refresh();
                }
            };

            ws.onclose = function() {
                setLive(false);
                setTimeout(connectWS, 3000);
            };
        }

        // Keyboard shortcuts for fast recording at the table
        document.addEventListener('keydown', function(e) {
            if (e.target.tagName === 'INPUT' || e.metaKey || e.ctrlKey) return;
            const k = e.key.toLowerCase();
            if (k === 'p') record('player');
            else if (k === 'b') record('banker');
            else if (k === 't') record('tie');
            else if (k === 'backspace') { e.preventDefault(); undoLast(); }
        });

        (async function init() {
            await ensureSession();
            await refresh();
            connectWS();
        })();
    </script>
</body>
</html>`

// boardHandler serves the shoe board page
func boardHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, boardHTML)
}
