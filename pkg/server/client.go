package server

// ClientScript applies sync and update messages to the rendered document.
// It is injected before </body> on GET /.
const ClientScript = `<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;

    function apply(nodes) {
        (nodes || []).forEach(function(n) {
            var el = document.querySelector('[data-hid="' + n.hid + '"]');
            if (!el) {
                return;
            }
            if (n.kind === 'value') {
                el.value = n.content;
            } else {
                el.textContent = n.content;
            }
        });
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() {
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            switch (msg.type) {
                case 'sync':
                case 'update':
                    apply(msg.nodes);
                    break;
                case 'error':
                    console.error('[reflex]', msg.error);
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    connect();
})();
</script>`
