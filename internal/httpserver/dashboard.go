package httpserver

// 运维速查页：轮询查询接口渲染事件表，无任何构建依赖
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Suntech Beacon Events</title>
<style>
body { font-family: monospace; margin: 24px; background: #111; color: #ddd; }
h1 { font-size: 18px; }
table { border-collapse: collapse; width: 100%; margin-top: 12px; }
th, td { border: 1px solid #444; padding: 4px 8px; text-align: left; font-size: 13px; }
th { background: #222; }
tr.ignition { background: #402020; }
#state { margin-top: 8px; color: #8c8; }
</style>
</head>
<body>
<h1>Suntech Beacon Events</h1>
<div id="state">loading…</div>
<table>
<thead><tr>
<th>time</th><th>mac</th><th>ignition</th><th>freq (s)</th><th>rssi</th><th>battery</th><th>lat</th><th>lon</th>
</tr></thead>
<tbody id="rows"></tbody>
</table>
<script>
async function refresh() {
  try {
    const [evRes, stRes] = await Promise.all([
      fetch('/api/beacon-scans'), fetch('/api/session')]);
    const ev = await evRes.json();
    const st = await stRes.json();
    document.getElementById('state').textContent =
      'ignition=' + st.current_ignition_status +
      ' events=' + ev.count;
    const rows = (ev.events || []).slice().reverse().map(e =>
      '<tr class="' + (e.is_ignition_change ? 'ignition' : '') + '">' +
      '<td>' + e.timestamp + '</td>' +
      '<td>' + e.mac_id + '</td>' +
      '<td>' + e.ignition_status + '</td>' +
      '<td>' + (e.frequency_seconds == null ? '-' : e.frequency_seconds.toFixed(1)) + '</td>' +
      '<td>' + (e.rssi == null ? '-' : e.rssi) + '</td>' +
      '<td>' + (e.battery_level == null ? '-' : e.battery_level + '%') + '</td>' +
      '<td>' + (e.latitude == null ? '-' : e.latitude.toFixed(6)) + '</td>' +
      '<td>' + (e.longitude == null ? '-' : e.longitude.toFixed(6)) + '</td>' +
      '</tr>').join('');
    document.getElementById('rows').innerHTML = rows;
  } catch (err) {
    document.getElementById('state').textContent = 'refresh failed: ' + err;
  }
}
refresh();
setInterval(refresh, 5000);
</script>
</body>
</html>
`
