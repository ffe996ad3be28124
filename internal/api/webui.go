package api

const webUI = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>ETERNO POS Terminal</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background:#f5f5f5;color:#333;line-height:1.6}

/* Header */
.hdr{background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);color:#fff;padding:14px 20px;display:flex;align-items:center;justify-content:space-between;position:sticky;top:0;z-index:100}
.hdr h1{font-size:18px;font-weight:600}
.hdr-dot{width:10px;height:10px;border-radius:50%;display:inline-block;margin-left:8px}
.hdr-right{display:flex;align-items:center;font-size:13px;gap:6px}
.dot-green{background:#22c55e}.dot-red{background:#ef4444}.dot-gray{background:#9ca3af}

/* Tab bar */
.tabs{display:flex;border-bottom:2px solid #e5e7eb;background:#fff;padding:0 16px}
.tab{padding:12px 20px;cursor:pointer;font-size:14px;font-weight:500;color:#666;border-bottom:2px solid transparent;margin-bottom:-2px}
.tab.active{color:#667eea;border-bottom-color:#667eea}
.panel{display:none;max-width:960px;margin:0 auto;padding:20px}
.panel.active{display:block}

/* Cards */
.card{background:#fff;border-radius:8px;padding:20px;margin-bottom:20px;box-shadow:0 2px 4px rgba(0,0,0,.1)}
.card h2{font-size:16px;margin-bottom:12px;padding-bottom:8px;border-bottom:1px solid #eee}
.row{display:flex;gap:8px;flex-wrap:wrap;align-items:center;margin-bottom:8px}
input,select{padding:8px 10px;border:1px solid #d1d5db;border-radius:6px;font-size:14px}
.btn{background:#667eea;color:#fff;border:none;padding:8px 16px;border-radius:6px;cursor:pointer;font-size:14px}
.btn:hover{background:#5a67d8}
.btn:disabled{background:#9ca3af;cursor:not-allowed}
.btn-secondary{background:#e5e7eb;color:#374151}
.btn-secondary:hover{background:#d1d5db}
.btn-danger{background:#ef4444}
table{width:100%;border-collapse:collapse;font-size:14px}
th,td{text-align:left;padding:8px;border-bottom:1px solid #f0f0f0}
td.num,th.num{text-align:right}
.totals div{display:flex;justify-content:space-between;padding:4px 0}
.totals .grand{font-size:18px;font-weight:600}
.muted{color:#666;font-size:13px}
#toast{position:fixed;bottom:20px;right:20px;background:#1a1a2e;color:#fff;padding:10px 16px;border-radius:6px;display:none}
#log{background:#1a1a2e;color:#a0aec0;padding:15px;border-radius:6px;font-family:monospace;font-size:12px;max-height:320px;overflow-y:auto}
.lvl-warn{color:#f59e0b}.lvl-error{color:#ef4444}
</style>
</head>
<body>
<div class="hdr">
  <h1>ETERNO POS Terminal</h1>
  <div class="hdr-right">Backend <span id="backend-dot" class="hdr-dot dot-gray"></span></div>
</div>
<div class="tabs">
  <div class="tab active" data-panel="register">Register</div>
  <div class="tab" data-panel="sales">Sales</div>
  <div class="tab" data-panel="logs">Logs</div>
</div>

<div id="register" class="panel active">
  <div class="card">
    <h2>Add Product</h2>
    <div class="row">
      <input id="p-id" type="number" placeholder="Product ID" style="width:110px">
      <input id="p-name" placeholder="Name">
      <input id="p-price" type="number" step="0.01" placeholder="Price" style="width:110px">
      <input id="p-stock" type="number" placeholder="Stock" style="width:90px">
      <button class="btn" onclick="addLine()">Add</button>
    </div>
  </div>
  <div class="card">
    <h2>Cart</h2>
    <table>
      <thead><tr><th>Item</th><th class="num">Price</th><th class="num">Qty</th><th class="num">Amount</th><th></th></tr></thead>
      <tbody id="lines"><tr><td colspan="5" class="muted">Cart is empty</td></tr></tbody>
    </table>
    <div class="row" style="margin-top:12px">
      <select id="discount" onchange="applyDiscount()">
        <option value="none">No discount</option>
        <option value="pwd">PWD (20%)</option>
        <option value="senior">Senior (20%)</option>
        <option value="voucher">Voucher</option>
      </select>
      <select id="method">
        <option value="cash">Cash</option>
        <option value="gcash">GCash</option>
        <option value="card">Card</option>
      </select>
      <button class="btn btn-secondary" onclick="clearCart()">Clear</button>
    </div>
    <div class="totals">
      <div><span>Subtotal</span><span id="subtotal">₱0.00</span></div>
      <div id="discount-row" style="display:none"><span id="discount-label">Discount</span><span id="discount-amount"></span></div>
      <div class="grand"><span>Total</span><span id="total">₱0.00</span></div>
    </div>
    <div class="row" style="margin-top:12px">
      <button id="submit" class="btn" onclick="submitSale()" disabled>Complete Sale</button>
    </div>
  </div>
</div>

<div id="sales" class="panel">
  <div class="card">
    <h2>Recent Sales</h2>
    <table>
      <thead><tr><th>Sale</th><th>Time</th><th>Payment</th><th class="num">Items</th><th class="num">Total</th><th>Receipt</th></tr></thead>
      <tbody id="sales-rows"></tbody>
    </table>
  </div>
</div>

<div id="logs" class="panel">
  <div class="card">
    <h2>Logs</h2>
    <div class="row">
      <select id="log-level" onchange="loadLogs()">
        <option value="">All levels</option>
        <option value="warn,error">Warnings and errors</option>
        <option value="error">Errors</option>
      </select>
    </div>
    <div id="log"></div>
  </div>
</div>

<div id="toast"></div>

<script>
document.querySelectorAll('.tab').forEach(function (t) {
  t.addEventListener('click', function () {
    document.querySelectorAll('.tab').forEach(function (x) { x.classList.remove('active'); });
    document.querySelectorAll('.panel').forEach(function (x) { x.classList.remove('active'); });
    t.classList.add('active');
    document.getElementById(t.dataset.panel).classList.add('active');
    if (t.dataset.panel === 'sales') loadSales();
    if (t.dataset.panel === 'logs') loadLogs();
  });
});

function toast(msg) {
  var el = document.getElementById('toast');
  el.textContent = msg;
  el.style.display = 'block';
  clearTimeout(el._t);
  el._t = setTimeout(function () { el.style.display = 'none'; }, 3000);
}

async function call(method, url, body) {
  var opts = { method: method, headers: {} };
  if (body !== undefined) {
    opts.headers['Content-Type'] = 'application/json';
    opts.body = JSON.stringify(body);
  }
  var res = await fetch(url, opts);
  var data = await res.json();
  if (!data.success) throw new Error(data.error || ('Request failed (' + res.status + ')'));
  return data;
}

function render(data) {
  var cart = data.cart, view = data.display;
  var rows = document.getElementById('lines');
  rows.innerHTML = '';
  var lines = cart.lines || [];
  if (lines.length === 0) {
    rows.innerHTML = '<tr><td colspan="5" class="muted">Cart is empty</td></tr>';
  }
  lines.forEach(function (l, i) {
    var v = view.lines[i];
    var tr = document.createElement('tr');
    tr.innerHTML = '<td></td><td class="num">' + v.price + '</td>' +
      '<td class="num"><button class="btn btn-secondary" data-d="-1">-</button> ' + l.quantity +
      ' <button class="btn btn-secondary" data-d="1">+</button></td>' +
      '<td class="num">' + v.amount + '</td><td><button class="btn btn-danger" data-rm="1">x</button></td>';
    tr.firstChild.textContent = l.name;
    tr.querySelectorAll('[data-d]').forEach(function (b) {
      b.onclick = function () { changeQty(l.product_id, parseInt(b.dataset.d, 10)); };
    });
    tr.querySelector('[data-rm]').onclick = function () { removeLine(l.product_id); };
    rows.appendChild(tr);
  });
  document.getElementById('subtotal').textContent = view.subtotal;
  document.getElementById('total').textContent = view.total;
  var dr = document.getElementById('discount-row');
  if (view.discount) {
    dr.style.display = 'flex';
    document.getElementById('discount-label').textContent = 'Discount (' + view.discount_code + ')';
    document.getElementById('discount-amount').textContent = view.discount;
  } else {
    dr.style.display = 'none';
  }
  document.getElementById('discount').value = cart.discount.code || 'none';
  document.getElementById('submit').disabled = lines.length === 0;
  if (data.message) toast(data.message);
}

async function act(method, url, body) {
  try { render(await call(method, url, body)); } catch (e) { toast(e.message); }
}

function addLine() {
  act('POST', '/api/pos/cart/lines', {
    product_id: parseInt(document.getElementById('p-id').value, 10),
    name: document.getElementById('p-name').value,
    price: parseFloat(document.getElementById('p-price').value || '0'),
    stock: parseInt(document.getElementById('p-stock').value || '0', 10)
  });
}
function changeQty(id, d) { act('PATCH', '/api/pos/cart/lines/' + id, { delta: d }); }
function removeLine(id) {
  if (confirm('Remove this item from cart?')) act('DELETE', '/api/pos/cart/lines/' + id);
}
function clearCart() {
  if (confirm('Clear all items from cart?')) act('DELETE', '/api/pos/cart?confirm=true');
}
function applyDiscount() {
  var v = document.getElementById('discount').value;
  if (v === 'none') act('DELETE', '/api/pos/cart/discount');
  else act('PUT', '/api/pos/cart/discount', { type: v });
}

async function submitSale() {
  var btn = document.getElementById('submit');
  btn.disabled = true;
  try {
    var data = await call('POST', '/api/pos/sale', { payment_method: document.getElementById('method').value });
    toast(data.message + ' Sale #' + data.sale_id);
  } catch (e) {
    toast(e.message);
  }
  act('GET', '/api/pos/cart');
}

async function loadSales() {
  try {
    var data = await call('GET', '/api/sales');
    var rows = document.getElementById('sales-rows');
    rows.innerHTML = '';
    (data.sales || []).forEach(function (s) {
      var tr = document.createElement('tr');
      tr.innerHTML = '<td>#' + s.sale_id + '</td><td>' + new Date(s.created_at).toLocaleString() + '</td><td></td>' +
        '<td class="num">' + s.items + '</td><td class="num">₱' + parseFloat(s.total).toFixed(2) + '</td><td></td>';
      tr.children[2].textContent = s.payment_method.toUpperCase();
      tr.children[5].textContent = s.receipt + (s.error ? ' (' + s.error + ')' : '');
      rows.appendChild(tr);
    });
  } catch (e) { toast(e.message); }
}

async function loadLogs() {
  var lvl = document.getElementById('log-level').value;
  try {
    var data = await call('GET', '/api/logs' + (lvl ? '?level=' + lvl : ''));
    var el = document.getElementById('log');
    el.innerHTML = '';
    (data.logs || []).forEach(function (e) {
      var div = document.createElement('div');
      div.className = 'lvl-' + e.level;
      div.textContent = '[' + new Date(e.timestamp).toLocaleTimeString() + '] ' + e.level.toUpperCase() + ' ' +
        (e.logger ? e.logger + ': ' : '') + e.message + (e.fields ? ' ' + JSON.stringify(e.fields) : '');
      el.appendChild(div);
    });
    el.scrollTop = el.scrollHeight;
  } catch (e) { toast(e.message); }
}

async function fetchStatus() {
  var dot = document.getElementById('backend-dot');
  try {
    var data = await call('GET', '/api/status');
    dot.className = 'hdr-dot ' + (data.backend.connected ? 'dot-green' : 'dot-red');
    dot.title = data.backend.last_error || '';
  } catch (e) {
    dot.className = 'hdr-dot dot-gray';
  }
}

act('GET', '/api/pos/cart');
fetchStatus();
setInterval(fetchStatus, 10000);
</script>
</body>
</html>
`
